// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/navwar/adbsync/pkg/adb"
	"github.com/navwar/adbsync/pkg/lfs"
	"github.com/navwar/adbsync/pkg/log"
	"github.com/navwar/adbsync/pkg/s3fs"
	"github.com/navwar/adbsync/pkg/ts"
)

const (
	EnvPrefix = "ADBSYNC"
)

// Config Flags
const (
	flagConfig = "config"
)

// ADB Flags
const (
	flagADBBin          = "adb-bin"
	flagADBFlag         = "adb-flag"
	flagADBOption       = "adb-option"
	flagAndroidTimeZone = "android-time-zone"
)

// Sync Flags
const (
	flagPull           = "pull"
	flagDryRun         = "dry-run"
	flagDelete         = "del"
	flagDeleteExcluded = "delete-excluded"
	flagForce          = "force"
	flagCopyLinks      = "copy-links"
	flagExclude        = "exclude"
	flagExcludeFrom    = "exclude-from"
	flagShowProgress   = "show-progress"
	flagThreads        = "threads"
)

// Sync Defaults
const (
	DefaultThreads = 1
)

// Snapshot Flags
const (
	flagLocal  = "local"
	flagOutput = "output"
	flagTimes  = "times"
)

// AWS Flags
const (
	flagAWSProfile            = "aws-profile"
	flagAWSRegion             = "aws-region"
	flagAWSAccessKeyID        = "aws-access-key-id"
	flagAWSSecretAccessKey    = "aws-secret-access-key"
	flagAWSSessionToken       = "aws-session-token"
	flagAWSRetryMaxAttempts   = "aws-retry-max-attempts"
	flagAWSInsecureSkipVerify = "aws-insecure-skip-verify"
	flagAWSS3Endpoint         = "aws-s3-endpoint"
	flagAWSS3UsePathStyle     = "aws-s3-use-path-style"
	flagBucketKeyEnabled      = "aws-bucket-key-enabled"
	flagPartSize              = "part-size"
)

// Log Flags
const (
	flagVerbose            = "verbose"
	flagQuiet              = "quiet"
	flagNoColor            = "no-color"
	flagLogPath            = "log-path"
	flagLogFormat          = "log-format"
	flagLogPerm            = "log-perm"
	flagLogClientRequests  = "log-client-requests"
	flagLogClientResponses = "log-client-responses"
	flagLogClientRetries   = "log-client-retries"
)

func initConfigFlags(flag *pflag.FlagSet) {
	flag.String(flagConfig, "", "path to a YAML, TOML, or JSON configuration file.  Exclude patterns in the file are added to the patterns given as flags.")
}

func initADBFlags(flag *pflag.FlagSet) {
	flag.String(flagADBBin, adb.DefaultProgram, "path to the adb binary")
	flag.StringSlice(flagADBFlag, []string{}, "flag passed to adb with a single dash, e.g., d for -d.  Can be repeated.")
	flag.StringSlice(flagADBOption, []string{}, "option passed to adb as OPTION=VALUE, e.g., s=SERIAL for -s SERIAL.  Can be repeated.")
	flag.String(flagAndroidTimeZone, ts.DefaultLocation, "time zone of the device clock, as a name (e.g., Europe/Berlin), Local, or an offset in hours.")
}

func initSyncFlags(flag *pflag.FlagSet) {
	flag.Bool(flagPull, false, "pull from the device to the local machine instead of pushing")
	flag.BoolP(flagDryRun, "n", false, "log what would be done without doing it")
	flag.Bool(flagDelete, false, "delete files at the destination that are not at the source and not excluded")
	flag.Bool(flagDeleteExcluded, false, "delete excluded files at the destination")
	flag.Bool(flagForce, false, "replace directories with files and files with directories")
	flag.BoolP(flagCopyLinks, "L", false, "follow symlinks and copy their referents")
	flag.StringArray(flagExclude, []string{}, "pattern of destination paths to exclude, relative to the destination.  \"*\" also matches \"/\".  Can be repeated.")
	flag.StringArray(flagExcludeFrom, []string{}, "file with one exclude pattern per line.  Can be repeated.")
	flag.Bool(flagShowProgress, false, "show the progress of adb push and pull")
	flag.Int(flagThreads, DefaultThreads, "maximum number of files transferred in parallel within a directory")
}

func initSnapshotFlags(flag *pflag.FlagSet) {
	flag.Bool(flagLocal, false, "snapshot the local machine instead of the device")
	flag.BoolP(flagCopyLinks, "L", false, "follow symlinks and record their referents")
	flag.StringP(flagOutput, "o", "-", "destination of the snapshot.  Either - for stdout, a local path, or s3://bucket/key.")
	flag.Bool(flagTimes, false, "render the snapshot as a tree with timestamps instead of JSON")
	flag.Int(flagPartSize, s3fs.DefaultPartSize, fmt.Sprintf("size of parts in bytes when uploading to S3 (minimum %d)", s3fs.DefaultPartSize))
}

func initAWSFlags(flag *pflag.FlagSet) {
	flag.String(flagAWSProfile, "", "AWS Profile")
	flag.String(flagAWSRegion, "", "AWS Region")
	flag.String(flagAWSAccessKeyID, "", "AWS Access Key ID")
	flag.String(flagAWSSecretAccessKey, "", "AWS Secret Access Key")
	flag.String(flagAWSSessionToken, "", "AWS Session Token")
	flag.Int(flagAWSRetryMaxAttempts, 5, "the maximum number attempts an AWS API client will call an operation that fails with a retryable error.")
	flag.Bool(flagAWSInsecureSkipVerify, false, "Skip verification of AWS TLS certificate")
	flag.String(flagAWSS3Endpoint, "", "AWS S3 Endpoint URL")
	flag.Bool(flagAWSS3UsePathStyle, false, "Use path-style addressing (default is to use virtual-host-style addressing)")
	flag.Bool(flagBucketKeyEnabled, false, "bucket key enabled")
}

func initLogFlags(flag *pflag.FlagSet) {
	flag.CountP(flagVerbose, "v", "increase verbosity")
	flag.CountP(flagQuiet, "q", "decrease verbosity.  Repeat up to four times to disable logging.")
	flag.Bool(flagNoColor, false, "disable colored log levels")
	flag.String(flagLogPath, log.PathStderr, "path to the log output.  Defaults to the operating system's stderr device.")
	flag.String(flagLogFormat, log.FormatText, "log format.  Either text or json.")
	flag.String(flagLogPerm, "0600", "file permissions for log output file as unix file mode.")
}

func initLogClientFlags(flag *pflag.FlagSet) {
	flag.Bool(flagLogClientRequests, false, "log AWS client requests")
	flag.Bool(flagLogClientResponses, false, "log AWS client responses")
	flag.Bool(flagLogClientRetries, false, "log AWS client retries")
}

func initSyncCommandFlags(flag *pflag.FlagSet) {
	initConfigFlags(flag)
	initADBFlags(flag)
	initSyncFlags(flag)
	initLogFlags(flag)
}

func initSnapshotCommandFlags(flag *pflag.FlagSet) {
	initConfigFlags(flag)
	initADBFlags(flag)
	initSnapshotFlags(flag)
	initAWSFlags(flag)
	initLogFlags(flag)
	initLogClientFlags(flag)
}

func initDevicesCommandFlags(flag *pflag.FlagSet) {
	initConfigFlags(flag)
	initADBFlags(flag)
	initLogFlags(flag)
}

// readConfigFile reads the configuration file at path.
func readConfigFile(afs afero.Fs, path string) (*viper.Viper, error) {
	c := viper.New()
	c.SetFs(afs)
	c.SetConfigFile(path)
	if err := c.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %q: %w", path, err)
	}
	return c, nil
}

// initViper binds the flags of the command to a new viper instance.
// Environment variables with the ADBSYNC prefix override the configuration
// file, and flags override both.  The configuration file is returned too, so
// its exclude list can be merged with the flags.
func initViper(cmd *cobra.Command, afs afero.Fs) (*viper.Viper, *viper.Viper, error) {
	v := viper.New()
	err := v.BindPFlags(cmd.Flags())
	if err != nil {
		return v, nil, fmt.Errorf("error binding flag set to viper: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv() // set environment variables to overwrite config

	path := v.GetString(flagConfig)
	if len(path) == 0 {
		return v, nil, nil
	}
	c, err := readConfigFile(afs, path)
	if err != nil {
		return v, nil, err
	}
	if err := v.MergeConfigMap(c.AllSettings()); err != nil {
		return v, nil, fmt.Errorf("error merging config file %q: %w", path, err)
	}
	return v, c, nil
}

func checkLogConfig(v *viper.Viper, args []string) error {
	logPath := v.GetString(flagLogPath)
	if len(logPath) == 0 {
		return fmt.Errorf("log path is missing")
	}
	logPerm := v.GetString(flagLogPerm)
	if len(logPerm) == 0 {
		return fmt.Errorf("log perm is missing")
	}
	_, err := strconv.ParseUint(logPerm, 8, 32)
	if err != nil {
		return fmt.Errorf("invalid format for log perm: %s", logPerm)
	}
	switch logFormat := v.GetString(flagLogFormat); logFormat {
	case log.FormatText, log.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q, expecting %q or %q", logFormat, log.FormatText, log.FormatJSON)
	}
	return nil
}

func checkADBConfig(v *viper.Viper, args []string) error {
	if len(v.GetString(flagADBBin)) == 0 {
		return errors.New("adb binary is missing")
	}
	for _, option := range v.GetStringSlice(flagADBOption) {
		if name, _, ok := strings.Cut(option, "="); !ok || len(name) == 0 {
			return fmt.Errorf("invalid adb option %q, expecting OPTION=VALUE", option)
		}
	}
	if _, err := ts.ParseLocation(v.GetString(flagAndroidTimeZone)); err != nil {
		return fmt.Errorf("invalid android time zone: %w", err)
	}
	return nil
}

func checkSyncConfig(v *viper.Viper, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("expecting 2 positional arguments for LOCAL and ANDROID, but found %d arguments", len(args))
	}
	if len(args[0]) == 0 {
		return errors.New("LOCAL path is empty")
	}
	if len(args[1]) == 0 {
		return errors.New("ANDROID path is empty")
	}
	if threads := v.GetInt(flagThreads); threads < 1 {
		return fmt.Errorf("threads must be at least 1, but found %d", threads)
	}
	if err := checkADBConfig(v, args); err != nil {
		return fmt.Errorf("error with adb configuration: %w", err)
	}
	if err := checkLogConfig(v, args); err != nil {
		return fmt.Errorf("error with log configuration: %w", err)
	}
	return nil
}

func checkSnapshotConfig(v *viper.Viper, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expecting 1 positional argument for PATH, but found %d arguments", len(args))
	}
	output := v.GetString(flagOutput)
	if len(output) == 0 {
		return errors.New("output is missing")
	}
	if s3fs.IsURI(output) {
		if _, _, err := s3fs.ParseURI(output); err != nil {
			return err
		}
		if v.GetBool(flagTimes) {
			return errors.New("rendering timestamps is incompatible with s3 outputs")
		}
	}
	if partSize := v.GetInt(flagPartSize); partSize < s3fs.DefaultPartSize {
		return fmt.Errorf("part size %d is less than the minimum part size %d", partSize, s3fs.DefaultPartSize)
	}
	if !v.GetBool(flagLocal) {
		if err := checkADBConfig(v, args); err != nil {
			return fmt.Errorf("error with adb configuration: %w", err)
		}
	}
	if err := checkLogConfig(v, args); err != nil {
		return fmt.Errorf("error with log configuration: %w", err)
	}
	return nil
}

func checkDevicesConfig(v *viper.Viper, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("expecting no positional arguments, but found %d arguments", len(args))
	}
	if err := checkADBConfig(v, args); err != nil {
		return fmt.Errorf("error with adb configuration: %w", err)
	}
	if err := checkLogConfig(v, args); err != nil {
		return fmt.Errorf("error with log configuration: %w", err)
	}
	return nil
}

// loadExcludes returns the exclude patterns from the configuration file,
// followed by the patterns given as flags, followed by the non-empty lines of
// each exclude-from file.
func loadExcludes(afs afero.Fs, configPatterns []string, patterns []string, excludeFrom []string) ([]string, error) {
	excludes := make([]string, 0, len(configPatterns)+len(patterns))
	excludes = append(excludes, configPatterns...)
	excludes = append(excludes, patterns...)
	for _, name := range excludeFrom {
		expanded, err := lfs.ExpandHome(filepath.Clean(name))
		if err != nil {
			return nil, fmt.Errorf("error expanding exclude-from path %q: %w", name, err)
		}
		b, err := afero.ReadFile(afs, expanded)
		if err != nil {
			return nil, fmt.Errorf("error reading exclude-from file %q: %w", expanded, err)
		}
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if len(line) > 0 {
				excludes = append(excludes, line)
			}
		}
	}
	return excludes, nil
}

func initLogger(v *viper.Viper) (*log.Logger, error) {
	fileMode := os.FileMode(0600)
	if perm := v.GetString(flagLogPerm); len(perm) > 0 {
		fm, err := strconv.ParseUint(perm, 8, 32)
		if err != nil {
			return nil, fmt.Errorf("error parsing file permissions for log file from %q", perm)
		}
		fileMode = os.FileMode(fm)
	}
	return log.NewLogger(log.Config{
		Verbose:     v.GetInt(flagVerbose),
		Quiet:       v.GetInt(flagQuiet),
		Format:      v.GetString(flagLogFormat),
		NoColor:     v.GetBool(flagNoColor),
		Path:        v.GetString(flagLogPath),
		Permissions: fileMode,
	})
}

func hasTrailingSlash(name string) bool {
	return strings.HasSuffix(name, "/") || strings.HasSuffix(name, "\\")
}
