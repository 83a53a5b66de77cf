// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the Teamscale upload tool.
// It implements a Cobra-based CLI that resolves settings from flags, the
// environment, and an optional YAML config file, builds the security-configured
// HTTP client, and uploads the given report files. A truststore subcommand
// decodes a trust store file and lists its certificates as a markdown table,
// which is the built-in counterpart of the `keytool -list` step the trust store
// error messages refer to.
package cli
