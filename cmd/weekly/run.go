package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/render"
)

// Run collects, generates, renders and publishes the digest.
func (c *RunCmd) Run(deps *Dependencies) error {
	frag, err := buildFragment(deps, &c.CollectFlags, &c.GenerateFlags)
	if err != nil {
		return err
	}

	res, err := deps.Publisher.Publish(deps.Ctx, frag)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Published %d bytes to %s (%s)\n", res.Bytes, res.Target, res.Mode)
	return nil
}

// Run prints the collected candidates.
func (c *CollectCmd) Run(deps *Dependencies) error {
	res, err := deps.Collector.Collect(deps.Ctx, deps.Sources.windowed(c.Days))
	if err != nil {
		return err
	}
	for _, s := range res.Sources {
		if s.Err != nil {
			fmt.Fprintf(deps.Stderr, "%s: %s\n", s.Name, weekly.ErrorMessage(s.Err))
		}
	}
	cands := res.Candidates
	if cands == nil {
		cands = []*weekly.Candidate{}
	}
	return writeJSON(deps, cands)
}

// Run prints the upcoming events.
func (c *EventsCmd) Run(deps *Dependencies) error {
	if deps.Sources.Events == nil {
		return weekly.Errorf(weekly.EINVALID, "no events listing configured in the sources file")
	}
	events, err := deps.Collector.Upcoming(deps.Ctx, deps.Sources.Events, c.EventCount)
	if err != nil {
		return err
	}
	return writeJSON(deps, events)
}

// Run prints the rendered fragment without publishing it.
func (c *PreviewCmd) Run(deps *Dependencies) error {
	frag, err := buildFragment(deps, &c.CollectFlags, &c.GenerateFlags)
	if err != nil {
		return err
	}
	if c.Markdown {
		md, err := deps.Converter.Convert(frag)
		if err != nil {
			return err
		}
		frag = md
	}
	fmt.Fprintln(deps.Stdout, frag)
	return nil
}

// buildFragment runs the pipeline up to the rendered fragment.
func buildFragment(deps *Dependencies, cf *CollectFlags, gf *GenerateFlags) (string, error) {
	ctx := deps.Ctx
	now := deps.now()

	res, err := deps.Collector.Collect(ctx, deps.Sources.windowed(cf.Days))
	if err != nil {
		return "", err
	}
	deps.logger().Info("collected", "candidates", len(res.Candidates), "sources", len(res.Sources))

	var events []*weekly.Candidate
	showEvents := deps.Sources.Events != nil && cf.EventCount > 0
	if showEvents {
		events, err = deps.Collector.Upcoming(ctx, deps.Sources.Events, cf.EventCount)
		if err != nil {
			return "", err
		}
	}

	limits := weekly.DefaultLimits()
	limits.MaxItems = gf.MaxItems
	req := &weekly.DigestRequest{
		Sections:   deps.Sources.Sections,
		Candidates: res.Candidates,
		Events:     events,
		WindowDays: cf.Days,
		WebSearch:  gf.WebSearch,
		Mode:       weekly.Mode(gf.Mode),
		Limits:     limits,
	}

	genCtx := ctx
	if gf.Timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, gf.Timeout)
		defer cancel()
	}
	digest, err := deps.Requester.RequestDigest(genCtx, req)
	if err != nil {
		return "", err
	}

	return deps.Renderer.Render(render.Input{
		Digest:      digest,
		Sections:    deps.Sources.Sections,
		Events:      events,
		ShowEvents:  showEvents,
		GeneratedAt: now,
		WindowDays:  cf.Days,
		MaxItems:    gf.MaxItems,
	})
}

func writeJSON(deps *Dependencies, v any) error {
	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
