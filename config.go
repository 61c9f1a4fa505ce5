package main

import (
	"bufio"
	_ "embed"
	"fmt"
	"github.com/goccy/go-yaml"
	"log"
	"os"
	"strings"
)

type Config struct {
	Listen              string
	StaticDir           string `yaml:"static_dir"`
	Backend             string
	Favicon             string
	MaxConnectionsPerIP int `yaml:"max_connections_per_ip"`
}

//go:embed config.example.yaml
var exampleConf []byte

func createConf(filename string) {
	fmt.Printf("Do you want to create config file? (%s) [y/N]: ", filename)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()

	v := scanner.Text()

	switch strings.ToLower(v) {
	case "y":
		if err := os.WriteFile(filename, exampleConf, 0644); err != nil {
			panic(fmt.Sprintf("failed to create config file: %s", err))
		}

		fmt.Printf("\nConfig file has been written to %s\n", filename)
		fmt.Println("Please edit the config before starting the gate.")
		fmt.Println("\nAfter editing, Start the gate by running:")

		if filename == "config.yaml" {
			fmt.Println("  $ wsgate")
		} else {
			fmt.Printf("  $ wsgate -configfile %s\n", filename)
		}

		os.Exit(0)
		return
	default:
		fmt.Println("wsgate cannot run without config.")
		os.Exit(1)
		return
	}
}

func ReadConfig(filename string, c *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			log.Println("Config file does not exist.")
			createConf(filename)
		}

		panic(fmt.Sprintf("error when reading %s: %s", filename, err))
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		panic(fmt.Sprintf("error when parsing %s: %s", filename, err))
	}

	ApplyDefaults(c)
}

func ApplyDefaults(c *Config) {
	if len(c.Listen) < 1 {
		c.Listen = "0.0.0.0:8080"
	}

	if len(c.StaticDir) < 1 {
		c.StaticDir = "./static"
	}

	if len(c.Backend) < 1 {
		c.Backend = "127.0.0.1:8081"
	}
}
