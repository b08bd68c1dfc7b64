package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/icecave/courier/cmd"
)

func main() {
	config := cmd.GetConfigFromEnvironment()

	client := &http.Client{Timeout: config.CheckTimeout}

	response, err := client.Get("http://localhost:" + config.MetricsPort + "/health")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		fmt.Printf("unexpected status: %s\n", response.Status)
		os.Exit(1)
	}

	fmt.Println("OK")
}
