//go:build ignore

// build.go - featurepipe build helper
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, pipeline, web, test, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

const distDir = "dist"

// executables maps cmd/ directories to output names
var executables = map[string]string{
	"pipeline": "featurepipe",
	"web":      "featurepipe-web",
}

var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

func main() {
	target := flag.String("target", "all", "build target: all, pipeline, web, test, clean")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	if runtime.GOOS == "windows" && os.Getenv("WT_SESSION") == "" {
		colorReset, colorRed, colorGreen, colorCyan = "", "", "", ""
	}

	start := time.Now()
	var err error
	switch *target {
	case "all":
		for _, name := range []string{"pipeline", "web"} {
			if err = buildExecutable(name, *verbose); err != nil {
				break
			}
		}
	case "pipeline", "web":
		err = buildExecutable(*target, *verbose)
	case "test":
		err = run(*verbose, "go", "test", "./...")
	case "clean":
		printInfo("Removing " + distDir)
		err = os.RemoveAll(distDir)
	default:
		err = fmt.Errorf("unknown target %q", *target)
	}

	if err != nil {
		printError(err.Error())
		os.Exit(1)
	}
	printSuccess(fmt.Sprintf("%s finished in %s", *target, time.Since(start).Round(time.Millisecond)))
}

func buildExecutable(name string, verbose bool) error {
	out := executables[name]
	if runtime.GOOS == "windows" {
		out += ".exe"
	}
	output := filepath.Join(distDir, out)
	printInfo(fmt.Sprintf("Building %s -> %s", name, output))

	if err := os.MkdirAll(distDir, 0o755); err != nil {
		return err
	}
	ldflags := fmt.Sprintf("-s -w -X featurepipe/pkg/contracts.BuildTime=%s -X featurepipe/pkg/contracts.GitCommit=%s",
		time.Now().UTC().Format(time.RFC3339), gitCommit())
	return run(verbose, "go", "build", "-trimpath", "-ldflags", ldflags, "-o", output, "./cmd/"+name)
}

func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

func run(verbose bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stderr = os.Stderr
	if verbose {
		cmd.Stdout = os.Stdout
		fmt.Printf("%s> %s %v%s\n", colorCyan, name, args, colorReset)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", name, args, err)
	}
	return nil
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorCyan, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[OK]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}
