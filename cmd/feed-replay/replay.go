// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/harborwatch/internal/auth"
	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/models"
	"github.com/tomtom215/harborwatch/internal/tracker"
	"github.com/tomtom215/harborwatch/internal/validation"
)

// Output formats.
const (
	FormatSnapshot = "snapshot"
	FormatGeoJSON  = "geojson"
)

// CLI is the feed-replay command line.
type CLI struct {
	Vessels    []string `help:"Vessel feed captures, applied in order." type:"existingfile" required:""`
	Ports      string   `help:"Port registry payload." type:"existingfile"`
	Refineries string   `help:"Refinery registry payload." type:"existingfile"`
	Criteria   string   `help:"JSON filter criteria file." type:"existingfile"`

	VesselType []string `help:"Vessel types to keep." name:"vessel-type"`
	Company    []string `help:"Company substrings to keep."`
	Product    []string `help:"Product types to keep."`
	Region     string   `help:"Region name or token."`
	Search     string   `help:"Free text search."`
	Bounds     string   `help:"Viewport as west,south,east,north."`
	Zoom       int      `help:"Zoom level." default:"3"`

	GridSize      float64 `help:"Heatmap cell size in degrees." default:"5"`
	ClusterRadius float64 `help:"Cluster radius in pixels." default:"40"`
	Heatmap       bool    `help:"Include the heatmap layer."`

	Format   string `help:"Output format." enum:"snapshot,geojson" default:"snapshot"`
	Pretty   bool   `help:"Indent JSON output."`
	LogLevel string `help:"Log level." enum:"trace,debug,info,warn,error" default:"warn" name:"log-level"`
}

// offlineFeed satisfies tracker.Feed without a network channel.
type offlineFeed struct{}

func (offlineFeed) Connect(context.Context) error        { return nil }
func (offlineFeed) Disconnect()                          {}
func (offlineFeed) State() models.ConnectionState        { return models.StateDisconnected }
func (offlineFeed) SetToken(string)                      {}
func (offlineFeed) OnState(func(models.ConnectionState)) {}
func (offlineFeed) OnBatch(func(feed.RawBatch))          {}

// Run replays the inputs and writes the result to out.
func (c *CLI) Run(out io.Writer) error {
	criteria, err := c.criteria()
	if err != nil {
		return err
	}
	bounds, err := parseBounds(c.Bounds)
	if err != nil {
		return err
	}

	session, err := tracker.NewSession(tracker.Config{
		GridSize:         c.GridSize,
		ClusterRadiusPx:  c.ClusterRadius,
		ThrottleInterval: time.Hour,
		DefaultZoom:      c.Zoom,
	}, tracker.Deps{Gate: auth.OpenGate{}, Feed: offlineFeed{}})
	if err != nil {
		return err
	}
	defer session.Close()

	if c.Ports != "" {
		if err := c.ingestFile(session, models.KindPort, c.Ports); err != nil {
			return err
		}
	}
	if c.Refineries != "" {
		if err := c.ingestFile(session, models.KindRefinery, c.Refineries); err != nil {
			return err
		}
	}
	for _, path := range c.Vessels {
		if err := c.ingestFile(session, models.KindVessel, path); err != nil {
			return err
		}
	}

	session.SetCriteria(criteria)
	session.ViewportChanged(bounds, c.Zoom)
	toggles := models.DefaultLayerToggles()
	toggles.ShowHeatmap = c.Heatmap
	session.SetToggles(toggles)

	snap := session.Snapshot()
	var payload []byte
	switch c.Format {
	case FormatGeoJSON:
		payload, err = tracker.SnapshotGeoJSON(snap).MarshalJSON()
		if err == nil && c.Pretty {
			var buf bytes.Buffer
			if err = json.Indent(&buf, payload, "", "  "); err == nil {
				payload = buf.Bytes()
			}
		}
	default:
		if c.Pretty {
			payload, err = json.MarshalIndent(snap, "", "  ")
		} else {
			payload, err = json.Marshal(snap)
		}
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.Format, err)
	}
	if _, err := out.Write(append(payload, '\n')); err != nil {
		return err
	}
	return nil
}

// criteria merges the criteria file with the flag values. Flags win.
func (c *CLI) criteria() (models.FilterCriteria, error) {
	var fc models.FilterCriteria
	if c.Criteria != "" {
		data, err := os.ReadFile(c.Criteria)
		if err != nil {
			return fc, err
		}
		if err := json.Unmarshal(data, &fc); err != nil {
			return fc, fmt.Errorf("parse criteria %s: %w", c.Criteria, err)
		}
	}
	if len(c.VesselType) > 0 {
		fc.VesselTypes = c.VesselType
	}
	if len(c.Company) > 0 {
		fc.Companies = c.Company
	}
	if len(c.Product) > 0 {
		fc.ProductTypes = c.Product
	}
	if c.Region != "" {
		fc.Region = c.Region
	}
	if c.Search != "" {
		fc.FreeText = c.Search
	}
	if verr := validation.ValidateStruct(&fc); verr != nil {
		return fc, verr
	}
	return fc, nil
}

func (c *CLI) ingestFile(session *tracker.Session, kind models.EntityKind, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	payloads, err := splitPayloads(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	for i, p := range payloads {
		res := session.Ingest(kind, feed.RawBatch{
			Source:     "replay",
			Records:    p.Records,
			Full:       p.Full(),
			ReceivedAt: time.Now(),
		})
		if n := len(res.Normalized.Rejections); n > 0 {
			fmt.Fprintf(os.Stderr, "%s payload %d: %d %s records rejected\n", path, i+1, n, kind)
		}
	}
	return nil
}

// splitPayloads decodes data as one payload, falling back to one payload
// per non-empty line.
func splitPayloads(data []byte) ([]feed.Decoded, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if d, err := feed.Decode(data); err == nil {
		return []feed.Decoded{d}, nil
	}

	var out []feed.Decoded
	for n, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		d, err := feed.Decode(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// parseBounds reads "west,south,east,north". Empty means no viewport.
func parseBounds(s string) (*models.Bounds, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.New("bounds must be west,south,east,north")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bounds: %w", err)
		}
		v[i] = f
	}
	b := &models.Bounds{West: v[0], South: v[1], East: v[2], North: v[3]}
	if verr := validation.ValidateStruct(b); verr != nil {
		return nil, verr
	}
	return b, nil
}
