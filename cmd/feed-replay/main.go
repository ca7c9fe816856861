// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

// Command feed-replay runs recorded feed payloads through the tracking
// pipeline offline and prints the resulting render snapshot or GeoJSON.
//
//	feed-replay --vessels capture.jsonl --ports ports.json --zoom 5 \
//	    --region "persian gulf" --format geojson
//
// A vessels file is either one payload (a record array or an envelope) or
// one payload per line, applied in order. Snapshot payloads are full
// refreshes and deltas are applied as they would be live.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/tomtom215/harborwatch/internal/logging"
)

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("feed-replay"),
		kong.Description("Replay recorded vessel feed payloads through normalization, filtering and aggregation."),
		kong.UsageOnError(),
	)

	logging.Init(logging.Config{
		Level:     cli.LogLevel,
		Format:    "console",
		Timestamp: true,
		Output:    os.Stderr,
	})

	ctx.FatalIfErrorf(cli.Run(os.Stdout))
}
