// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
// Use of this source code is governed by a BSD 3-Clause
// license that can be found in the LICENSE file.

// teamscale-upload is a command-line tool for uploading coverage and finding
// reports to a Teamscale server over a security-configured HTTPS connection.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/alymahmoudd/teamscale-upload/cmd/teamscale-upload@latest
//
// # Usage
//
//	teamscale-upload [FLAGS] REPORT_FILE...
//
// # Flags
//
//	-c, --config               Read settings from a YAML config file
//	-s, --server               URL of the Teamscale server [required]
//	-p, --project              Teamscale project the reports belong to [required]
//	-u, --user                 Username for the upload [required]
//	-a, --accesskey            Access key of the user (prefer TEAMSCALE_ACCESS_KEY) [required]
//	-f, --format               Report format identifier, e.g. JACOCO or SIMPLE [required]
//	-t, --partition            Analysis partition to upload into
//	-m, --message              Commit message shown for the upload
//	    --timeout              HTTP timeout in seconds, applied to connect, read, and write
//	    --insecure             Disable SSL certificate and hostname validation
//	    --truststore           Path to a custom certificate trust store (JKS, PKCS#12, or PEM)
//	    --truststore-password  Password of the trust store (prefer TEAMSCALE_TRUSTSTORE_PASSWORD)
//	    --log-json             Emit diagnostics as JSON lines
//
// Every flag can also come from the YAML config file or a TEAMSCALE_*
// environment variable; flags win over the environment, which wins over the
// file. Secrets are only read from flags or the environment.
//
// # Examples
//
// Upload a JaCoCo report:
//
//	teamscale-upload -s https://teamscale.example.com -p my-project \
//	  -u build -f JACOCO coverage.xml
//
// Upload through a self-hosted certificate authority:
//
//	teamscale-upload -s https://teamscale.internal -p my-project -u build \
//	  -f JACOCO --truststore /etc/ssl/teamscale.p12 coverage.xml
//
// Inspect a trust store the way the error messages suggest:
//
//	teamscale-upload truststore --password changeit /etc/ssl/teamscale.p12
package main
