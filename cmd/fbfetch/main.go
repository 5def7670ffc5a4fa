package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fcjbispo/fbgoutils-ai/config"
	"github.com/fcjbispo/fbgoutils-ai/httpclient"
	"github.com/fcjbispo/fbgoutils-ai/logger"
)

func main() {
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")

	target := flag.String("url", "", "URL or path (relative to the configured base URL) to fetch.")
	targetAlias := flag.String("u", "", "Alias for -url")

	method := flag.String("method", "GET", "HTTP method: GET or POST.")
	methodAlias := flag.String("m", "", "Alias for -method")

	data := flag.String("data", "", "JSON request body (POST only).")
	dataAlias := flag.String("d", "", "Alias for -data")

	stream := flag.Bool("stream", false, "Consume the response as a server-sent event stream.")
	flag.Parse()

	if *configFile == "" && *configFileAlias != "" {
		*configFile = *configFileAlias
	}
	if *target == "" && *targetAlias != "" {
		*target = *targetAlias
	}
	if *methodAlias != "" {
		*method = *methodAlias
	}
	if *data == "" && *dataAlias != "" {
		*data = *dataAlias
	}

	if *target == "" {
		fmt.Fprintln(os.Stderr, "[FATAL] -url argument is required")
		os.Exit(1)
	}

	var cfg *config.Config
	if path := config.GetConfigPath(*configFile); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		// Running without a config file: derive the session from the target.
		defaults := config.NewDefaultConfig()
		defaults.ClientConfig.BaseURL = *target
		cfg = &defaults
	}

	log, err := logger.New(cfg.LogConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	session, err := httpclient.NewSession(cfg.ClientConfig.ToSessionConfig(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}
	defer session.Close()

	builder := httpclient.NewRequest(httpclient.Method(strings.ToUpper(*method)), *target).
		WithStream(*stream)
	if *data != "" {
		var body interface{}
		if err := json.Unmarshal([]byte(*data), &body); err != nil {
			log.Fatal().Err(err).Msg("Request body is not valid JSON")
		}
		builder = builder.WithJSONBody(body)
	}
	spec, err := builder.Build()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid request")
	}

	client, err := httpclient.NewClient(session, cfg.RetryConfig.ToRetryPolicy(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create client")
	}

	envelope, err := client.Do(spec)
	if err != nil {
		log.Fatal().Err(err).Msg("Request failed")
	}

	if *stream {
		printEvents(envelope)
		return
	}

	output, err := json.MarshalIndent(envelope.DecodedJSON(), "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render response")
	}
	fmt.Println(string(output))
}

func printEvents(envelope *httpclient.ResponseEnvelope) {
	stream := envelope.Stream()
	if stream == nil {
		return
	}
	defer stream.Close()

	for {
		event, err := stream.NextEvent()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] stream read failed: %v\n", err)
			return
		}
		fmt.Println(string(event))
	}
}
