// Package config loads featurepipe configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// environment variables prefixed with FEATUREPIPE_. Nested sections map to
// nested prefixes:
//
//	FEATUREPIPE_PIPELINE_INPUT_FILE=employee_data.csv
//	FEATUREPIPE_PIPELINE_EXECUTION_MODE=parallel
//	FEATUREPIPE_PIPELINE_STAGES=derive,encode
//	FEATUREPIPE_PIPELINE_OUTPUTS=derive:derived.csv,bin:binned.csv
//	FEATUREPIPE_SERVER_PORT=9090
//	FEATUREPIPE_LOGGING_LEVEL=debug
//
// The YAML file uses the snake_case keys of the struct tags:
//
//	pipeline:
//	  input_file: employee_data.csv
//	  output_dir: out
//	  today: "2024-03-15"
//	server:
//	  port: 8080
//	  rate_limit:
//	    enabled: true
//	    rps: 20
//	    burst: 40
//
// The merged result is checked with go-playground/validator before Load
// returns it.
package config
