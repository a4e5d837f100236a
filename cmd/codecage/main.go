// Command codecage validates and runs agent scripts from the command line.
//
// Usage:
//
//	codecage validate script.cage            # static check only
//	codecage run script.cage                 # validate, then execute
//	codecage run --config cage.yaml script.cage
//	codecage version
//
// run executes the script with the built-in demo tools injected; exit code 1
// means the script was rejected or failed, 2 means the invocation itself was
// wrong.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/BaSui01/codecage"
	"github.com/BaSui01/codecage/config"
	"github.com/BaSui01/codecage/sandbox"
	"github.com/BaSui01/codecage/tools"
	"github.com/BaSui01/codecage/validator"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "validate":
		os.Exit(cmdValidate(os.Args[2:]))
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "version":
		fmt.Println("codecage", codecage.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: codecage <validate|run|version> [flags] <script>")
}

func cmdValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		return 2
	}

	v, _, err := build(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	code, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	verdict := v.Validate(string(code))
	if verdict.OK {
		fmt.Println("ok")
		return 0
	}
	for _, violation := range verdict.Violations {
		fmt.Println(violation.String())
	}
	return 1
}

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	verbose := fs.Bool("verbose", false, "log validation and execution details")
	fs.Parse(args)
	if fs.NArg() != 1 {
		usage()
		return 2
	}

	v, limits, err := build(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	code, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger := zap.NewNop()
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		defer logger.Sync()
	}

	runner := sandbox.NewRunner(v, limits, logger)
	result := runner.Run(context.Background(), string(code), tools.Builtin(), nil)

	if result.Output != "" {
		fmt.Print(result.Output)
	}
	if result.Truncated {
		fmt.Fprintln(os.Stderr, "(output truncated)")
	}
	switch result.Outcome {
	case sandbox.OutcomeSuccess, sandbox.OutcomeFinalAnswer:
		if result.Value != nil {
			fmt.Printf("=> %v\n", result.Value)
		}
		return 0
	default:
		fmt.Fprintln(os.Stderr, result.ErrorMessage)
		return 1
	}
}

// build assembles the validator and limits, from a config file when one is
// given and from the shipped defaults otherwise.
func build(configPath string) (*validator.Validator, sandbox.Limits, error) {
	if configPath == "" {
		return validator.Default(), sandbox.DefaultLimits(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, sandbox.Limits{}, err
	}
	return validator.New(cfg.Ruleset()), cfg.Limits(), nil
}
