// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alymahmoudd/teamscale-upload/src/config"
	"github.com/alymahmoudd/teamscale-upload/src/internal/security/httpclient"
	"github.com/alymahmoudd/teamscale-upload/src/internal/upload"
	"github.com/alymahmoudd/teamscale-upload/src/logger"
	"github.com/alymahmoudd/teamscale-upload/src/report"
)

// ErrReportFileRequired indicates that no report file argument was given.
var ErrReportFileRequired = errors.New("cli: at least one report file is required")

var (
	configFile         string
	serverURL          string
	project            string
	user               string
	accessKey          string
	format             string
	partition          string
	message            string
	timeoutSeconds     uint
	insecure           bool
	trustStorePath     string
	trustStorePassword string
	jsonLog            bool
)

// UploadPerformed reports whether at least one report was uploaded during
// Execute. Used by main for the final status message.
var UploadPerformed bool

// Execute runs the root command, handling any errors that occur during execution.
func Execute(ctx context.Context, version string, log logger.Logger) error {
	rootCmd := &cobra.Command{
		Use:          "teamscale-upload [REPORT_FILE...]",
		Short:        "Upload coverage and finding reports to a Teamscale server",
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execUpload(cmd, version, log, args)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "read settings from a YAML config file")
	flags.StringVarP(&serverURL, "server", "s", "", "URL of the Teamscale server")
	flags.StringVarP(&project, "project", "p", "", "Teamscale project the reports belong to")
	flags.StringVarP(&user, "user", "u", "", "username for the upload")
	flags.StringVarP(&accessKey, "accesskey", "a", "", "access key of the user (prefer TEAMSCALE_ACCESS_KEY)")
	flags.StringVarP(&format, "format", "f", "", "report format identifier, e.g. JACOCO or SIMPLE")
	flags.StringVarP(&partition, "partition", "t", "", "analysis partition to upload into")
	flags.StringVarP(&message, "message", "m", "", "commit message shown for the upload")
	flags.UintVar(&timeoutSeconds, "timeout", 60, "HTTP timeout in seconds, applied to connect, read, and write")
	flags.BoolVar(&insecure, "insecure", false, "disable SSL certificate and hostname validation")
	flags.StringVar(&trustStorePath, "truststore", "", "path to a custom certificate trust store (JKS, PKCS#12, or PEM)")
	flags.StringVar(&trustStorePassword, "truststore-password", "", "password of the trust store (prefer TEAMSCALE_TRUSTSTORE_PASSWORD)")
	flags.BoolVar(&jsonLog, "log-json", false, "emit diagnostics as JSON lines")

	rootCmd.AddCommand(newTrustStoreCmd())

	return rootCmd.ExecuteContext(ctx)
}

// execUpload resolves the effective settings, builds the security-configured
// HTTP client, and uploads every report file given on the command line.
func execUpload(cmd *cobra.Command, version string, log logger.Logger, args []string) error {
	if len(args) == 0 {
		return ErrReportFileRequired
	}

	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	if jsonLog {
		log = logger.NewJSONLogger(nil)
	}
	reporter := report.NewCLIReporter(log)

	factory := httpclient.NewFactory(reporter)
	client := factory.Create(httpclient.Config{
		ValidateSSL:        !settings.Insecure,
		TrustStorePath:     settings.TrustStorePath,
		TrustStorePassword: settings.TrustStorePassword,
		Timeout:            time.Duration(settings.TimeoutSeconds) * time.Second,
	})

	req := upload.Request{
		ServerURL: settings.ServerURL,
		Project:   settings.Project,
		Username:  settings.User,
		AccessKey: settings.AccessKey,
		Format:    settings.Format,
		Partition: settings.Partition,
		Message:   settings.Message,
		UserAgent: "teamscale-upload/" + version,
	}

	for _, reportPath := range args {
		log.Printf("Uploading %s ...", reportPath)
		if err := upload.Perform(cmd.Context(), client, req, reportPath); err != nil {
			return err
		}
	}

	UploadPerformed = true
	return nil
}

// resolveSettings merges defaults, the optional YAML config file, the
// environment, and finally any explicitly set flags, in that order.
func resolveSettings(cmd *cobra.Command) (config.Settings, error) {
	settings := config.Default()

	if configFile != "" {
		var err error
		settings, err = config.LoadFile(settings, configFile)
		if err != nil {
			return settings, err
		}
	}

	if err := settings.ApplyEnv(); err != nil {
		return settings, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		settings.ServerURL = serverURL
	}
	if flags.Changed("project") {
		settings.Project = project
	}
	if flags.Changed("user") {
		settings.User = user
	}
	if flags.Changed("accesskey") {
		settings.AccessKey = accessKey
	}
	if flags.Changed("format") {
		settings.Format = format
	}
	if flags.Changed("partition") {
		settings.Partition = partition
	}
	if flags.Changed("message") {
		settings.Message = message
	}
	if flags.Changed("timeout") {
		settings.TimeoutSeconds = timeoutSeconds
	}
	if flags.Changed("insecure") {
		settings.Insecure = insecure
	}
	if flags.Changed("truststore") {
		settings.TrustStorePath = trustStorePath
	}
	if flags.Changed("truststore-password") {
		settings.TrustStorePassword = trustStorePassword
	}

	if settings.TimeoutSeconds == 0 {
		return settings, fmt.Errorf("cli: timeout must be a positive number of seconds")
	}

	return settings, nil
}
