// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/navwar/adbsync/pkg/adb"
	"github.com/navwar/adbsync/pkg/adbfs"
	"github.com/navwar/adbsync/pkg/fs"
	"github.com/navwar/adbsync/pkg/lfs"
	"github.com/navwar/adbsync/pkg/log"
	"github.com/navwar/adbsync/pkg/s3fs"
	"github.com/navwar/adbsync/pkg/tree"
	"github.com/navwar/adbsync/pkg/ts"
)

const (
	AdbSyncVersion = "0.0.1"
)

func fatal(logger *log.Logger, msg string, fields ...map[string]interface{}) {
	logger.Critical(msg, fields...)
	_ = logger.Close()
	os.Exit(1)
}

func initAndroidFileSystem(v *viper.Viper, console io.Writer, logger fs.Logger) (*adb.Client, *adbfs.AndroidFileSystem, error) {
	client, err := adb.NewClient(&adb.NewClientInput{
		Program: v.GetString(flagADBBin),
		Flags:   v.GetStringSlice(flagADBFlag),
		Options: v.GetStringSlice(flagADBOption),
		Console: console,
		Logger:  logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error creating adb client: %w", err)
	}
	location, err := ts.ParseLocation(v.GetString(flagAndroidTimeZone))
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing android time zone: %w", err)
	}
	androidFileSystem := adbfs.NewAndroidFileSystem(&adbfs.NewAndroidFileSystemInput{
		Client:   client,
		Location: location,
		Logger:   logger,
	})
	return client, androidFileSystem, nil
}

// checkDevice fails if no device is attached.
func checkDevice(ctx context.Context, logger *log.Logger, androidFileSystem *adbfs.AndroidFileSystem) {
	ready, err := androidFileSystem.TestConnection(ctx)
	if err != nil {
		fatal(logger, "No device detected", map[string]interface{}{
			"err": err.Error(),
		})
	}
	if !ready {
		fatal(logger, "No device detected")
	}
}

func writeSnapshot(w io.Writer, root string, n tree.Node, times bool) error {
	if times {
		for _, line := range tree.Render(root, n, true) {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
	b, err := tree.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling snapshot: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

func exportSnapshot(ctx context.Context, v *viper.Viper, afs afero.Fs, logger *log.Logger, root string, n tree.Node) error {
	output := v.GetString(flagOutput)
	times := v.GetBool(flagTimes)

	if output == "-" {
		return writeSnapshot(os.Stdout, root, n, times)
	}

	if s3fs.IsURI(output) {
		bucket, key, err := s3fs.ParseURI(output)
		if err != nil {
			return err
		}
		client, err := s3fs.NewClient(ctx, &s3fs.NewClientInput{
			Profile:            v.GetString(flagAWSProfile),
			Region:             v.GetString(flagAWSRegion),
			Endpoint:           v.GetString(flagAWSS3Endpoint),
			InsecureSkipVerify: v.GetBool(flagAWSInsecureSkipVerify),
			RetryMaxAttempts:   v.GetInt(flagAWSRetryMaxAttempts),
			UsePathStyle:       v.GetBool(flagAWSS3UsePathStyle),
			AccessKeyID:        v.GetString(flagAWSAccessKeyID),
			SecretAccessKey:    v.GetString(flagAWSSecretAccessKey),
			SessionToken:       v.GetString(flagAWSSessionToken),
			LogClientRetries:   v.GetBool(flagLogClientRetries),
			LogClientRequests:  v.GetBool(flagLogClientRequests),
			LogClientResponses: v.GetBool(flagLogClientResponses),
			Logger:             log.NewClientLogger(logger),
		})
		if err != nil {
			return fmt.Errorf("error creating s3 client: %w", err)
		}
		uploader := s3fs.NewUploader(ctx, &s3fs.UploaderInput{
			Client:           client,
			Bucket:           bucket,
			BucketKeyEnabled: v.GetBool(flagBucketKeyEnabled),
			ContentType:      "application/json",
			Key:              key,
			PartSize:         v.GetInt(flagPartSize),
		})
		if err := writeSnapshot(uploader, root, n, false); err != nil {
			return errors.Join(err, uploader.Abort())
		}
		return uploader.Close()
	}

	f, err := afs.OpenFile(output, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening output %q: %w", output, err)
	}
	if err := writeSnapshot(f, root, n, times); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func main() {
	rootCommand := &cobra.Command{
		Use:                   `adbsync [flags]`,
		DisableFlagsInUseLine: true,
		Short: strings.Join([]string{
			"adbsync is a simple command line program for synchronizing a local directory with an Android device over adb.",
			"adbsync sync pushes LOCAL to ANDROID, or pulls ANDROID to LOCAL with --pull.",
			"Files are copied if they are missing or older at the destination.",
		}, "\n"),
	}

	layoutsCommand := &cobra.Command{
		Use:                   `layouts`,
		DisableFlagsInUseLine: true,
		Short:                 "show supported timestamp layouts",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range ts.Names() {
				fmt.Printf("%s: %s\n", name, ts.NamedLayouts[name])
			}
			return nil
		},
	}

	syncCommand := &cobra.Command{
		Use:                   `sync [flags] LOCAL ANDROID`,
		DisableFlagsInUseLine: true,
		Short:                 "synchronize LOCAL and ANDROID",
		Long:                  "copy LOCAL to ANDROID, or ANDROID to LOCAL with --pull, replacing files that are older at the destination",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {

			ctx := cmd.Context()

			osFs := afero.NewOsFs()

			v, fileConfig, err := initViper(cmd, osFs)
			if err != nil {
				return fmt.Errorf("error initializing viper: %w", err)
			}

			if errConfig := checkSyncConfig(v, args); errConfig != nil {
				return errConfig
			}

			logger, err := initLogger(v)
			if err != nil {
				return fmt.Errorf("error initializing logger: %w", err)
			}

			localPath := args[0]
			androidPath := args[1]

			if hasTrailingSlash(localPath) || hasTrailingSlash(androidPath) {
				logger.Warn("Trailing slashes are ignored")
			}

			configPatterns := []string{}
			if fileConfig != nil {
				configPatterns = fileConfig.GetStringSlice(flagExclude)
			}
			patterns, err := cmd.Flags().GetStringArray(flagExclude)
			if err != nil {
				return fmt.Errorf("error reading exclude flag: %w", err)
			}
			excludeFrom, err := cmd.Flags().GetStringArray(flagExcludeFrom)
			if err != nil {
				return fmt.Errorf("error reading exclude-from flag: %w", err)
			}
			excludes, err := loadExcludes(osFs, configPatterns, patterns, excludeFrom)
			if err != nil {
				fatal(logger, "Error loading exclude patterns", map[string]interface{}{
					"err": err.Error(),
				})
			}

			var console io.Writer
			if v.GetBool(flagShowProgress) {
				console = os.Stdout
			}

			client, androidFileSystem, err := initAndroidFileSystem(v, console, logger)
			if err != nil {
				fatal(logger, "Error initializing android file system", map[string]interface{}{
					"err": err.Error(),
				})
			}

			localFileSystem := lfs.NewLocalFileSystem(&lfs.NewLocalFileSystemInput{
				Fs:     osFs,
				Client: client,
			})

			localPath, err = lfs.ExpandHome(localPath)
			if err != nil {
				fatal(logger, "Error expanding local path", map[string]interface{}{
					"path": args[0],
					"err":  err.Error(),
				})
			}

			var sourcePath, destinationPath string
			var sourceFileSystem, destinationFileSystem fs.FileSystem
			if v.GetBool(flagPull) {
				sourcePath, sourceFileSystem = androidPath, androidFileSystem
				destinationPath, destinationFileSystem = localPath, localFileSystem
			} else {
				sourcePath, sourceFileSystem = localPath, localFileSystem
				destinationPath, destinationFileSystem = androidPath, androidFileSystem
			}
			sourcePath = sourceFileSystem.Normalize(sourcePath)
			destinationPath = destinationFileSystem.Normalize(destinationPath)

			checkDevice(ctx, logger, androidFileSystem)

			_, err = fs.Sync(ctx, &fs.SyncInput{
				Source:                sourcePath,
				SourceFileSystem:      sourceFileSystem,
				Destination:           destinationPath,
				DestinationFileSystem: destinationFileSystem,
				Exclude:               excludes,
				FollowLinks:           v.GetBool(flagCopyLinks),
				DryRun:                v.GetBool(flagDryRun),
				Delete:                v.GetBool(flagDelete),
				DeleteExcluded:        v.GetBool(flagDeleteExcluded),
				Force:                 v.GetBool(flagForce),
				MaxThreads:            v.GetInt(flagThreads),
				Logger:                logger,
			})
			if err != nil {
				var conflictError *fs.ConflictError
				if errors.As(err, &conflictError) {
					logger.Error("Error synchronizing", map[string]interface{}{
						"source":      sourcePath,
						"destination": destinationPath,
						"err":         err.Error(),
					})
					fatal(logger, "Use --force if you are sure!")
				}
				fatal(logger, "Error synchronizing", map[string]interface{}{
					"source":      sourcePath,
					"destination": destinationPath,
					"err":         err.Error(),
				})
			}

			return logger.Close()
		},
	}
	initSyncCommandFlags(syncCommand.Flags())

	snapshotCommand := &cobra.Command{
		Use:                   `snapshot [flags] PATH`,
		DisableFlagsInUseLine: true,
		Short:                 "export a snapshot",
		Long:                  "export the snapshot tree at PATH on the device, or on the local machine with --local, as JSON to stdout, a file, or S3",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {

			ctx := cmd.Context()

			osFs := afero.NewOsFs()

			v, _, err := initViper(cmd, osFs)
			if err != nil {
				return fmt.Errorf("error initializing viper: %w", err)
			}

			if errConfig := checkSnapshotConfig(v, args); errConfig != nil {
				return errConfig
			}

			logger, err := initLogger(v)
			if err != nil {
				return fmt.Errorf("error initializing logger: %w", err)
			}

			root := args[0]

			var fileSystem fs.FileSystem
			if v.GetBool(flagLocal) {
				root, err = lfs.ExpandHome(root)
				if err != nil {
					fatal(logger, "Error expanding local path", map[string]interface{}{
						"path": args[0],
						"err":  err.Error(),
					})
				}
				fileSystem = lfs.NewLocalFileSystem(&lfs.NewLocalFileSystemInput{
					Fs: osFs,
				})
			} else {
				_, androidFileSystem, err := initAndroidFileSystem(v, nil, logger)
				if err != nil {
					fatal(logger, "Error initializing android file system", map[string]interface{}{
						"err": err.Error(),
					})
				}
				checkDevice(ctx, logger, androidFileSystem)
				fileSystem = androidFileSystem
			}
			root = fileSystem.Normalize(root)

			n, err := fs.BuildSnapshot(ctx, &fs.SnapshotInput{
				FileSystem:  fileSystem,
				Root:        root,
				FollowLinks: v.GetBool(flagCopyLinks),
				Logger:      logger,
			})
			if err != nil {
				fatal(logger, "Error building snapshot", map[string]interface{}{
					"path": root,
					"err":  err.Error(),
				})
			}

			files, directories := tree.Count(n)
			logger.Debug("Built snapshot", map[string]interface{}{
				"path":        root,
				"files":       files,
				"directories": directories,
			})

			if err := exportSnapshot(ctx, v, osFs, logger, root, n); err != nil {
				fatal(logger, "Error exporting snapshot", map[string]interface{}{
					"path":   root,
					"output": v.GetString(flagOutput),
					"err":    err.Error(),
				})
			}

			return logger.Close()
		},
	}
	initSnapshotCommandFlags(snapshotCommand.Flags())

	devicesCommand := &cobra.Command{
		Use:                   `devices`,
		DisableFlagsInUseLine: true,
		Short:                 "check that a device is attached",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {

			ctx := cmd.Context()

			v, _, err := initViper(cmd, afero.NewOsFs())
			if err != nil {
				return fmt.Errorf("error initializing viper: %w", err)
			}

			if errConfig := checkDevicesConfig(v, args); errConfig != nil {
				return errConfig
			}

			logger, err := initLogger(v)
			if err != nil {
				return fmt.Errorf("error initializing logger: %w", err)
			}

			_, androidFileSystem, err := initAndroidFileSystem(v, nil, logger)
			if err != nil {
				fatal(logger, "Error initializing android file system", map[string]interface{}{
					"err": err.Error(),
				})
			}

			checkDevice(ctx, logger, androidFileSystem)

			logger.Info("Device detected")

			return logger.Close()
		},
	}
	initDevicesCommandFlags(devicesCommand.Flags())

	versionCommand := &cobra.Command{
		Use:                   `version`,
		DisableFlagsInUseLine: true,
		Short:                 "show version",
		SilenceErrors:         true,
		SilenceUsage:          true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(AdbSyncVersion)
			return nil
		},
	}

	rootCommand.AddCommand(layoutsCommand, syncCommand, snapshotCommand, devicesCommand, versionCommand)

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "adbsync: "+err.Error())
		fmt.Fprintln(os.Stderr, "Try \"adbsync --help\" for more information.")
		os.Exit(1)
	}
}
