package main

import (
	"fmt"
	"os"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

const usage = `usage: configtool <command> [args]

commands:
  default [yaml|json]        print the built-in configuration
  validate <file>            load a config file on top of the defaults and validate it
  migrate <in> <out>         convert a config file between YAML and JSON (by extension)
  diff <a> <b>               list keys whose effective values differ
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	args := os.Args[2:]

	var err error
	switch os.Args[1] {
	case "default":
		format := common.FormatYAML
		if len(args) > 0 {
			format = args[0]
		}
		err = printDefault(format)
	case "validate":
		err = requireArgs(args, 1, func() error { return validate(args[0]) })
	case "migrate":
		err = requireArgs(args, 2, func() error { return migrate(args[0], args[1]) })
	case "diff":
		err = requireArgs(args, 2, func() error { return diff(args[0], args[1]) })
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "configtool: %v\n", err)
		os.Exit(1)
	}
}

func requireArgs(args []string, n int, run func() error) error {
	if len(args) < n {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	return run()
}

func printDefault(format string) error {
	out, err := common.EncodeConfig(common.DefaultConfig(), format)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func validate(path string) error {
	cfg, err := common.LoadConfigFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", path)
	return nil
}

func migrate(in, out string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	converted, err := common.ConvertDocument(data, common.FormatFromPath(out))
	if err != nil {
		return err
	}
	return os.WriteFile(out, converted, 0o644)
}

func diff(a, b string) error {
	left, err := common.LoadConfigFile(a)
	if err != nil {
		return err
	}
	right, err := common.LoadConfigFile(b)
	if err != nil {
		return err
	}
	diffs, err := common.DiffConfigs(left, right)
	if err != nil {
		return err
	}
	if len(diffs) == 0 {
		fmt.Println("no differences")
		return nil
	}
	for _, d := range diffs {
		fmt.Println(d)
	}
	return nil
}
