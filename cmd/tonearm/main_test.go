package main

import (
	"context"
	"strings"
	"testing"

	"tonearm/internal/jobs"
)

func TestCLIReadyShowAndDecisions(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, []string{"ready"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	requireContains(t, out, "No folders awaiting review")

	alpha := seedFolder(t, env, "alpha-rip", jobs.StatusReady)
	beta := seedFolder(t, env, "beta-rip", jobs.StatusError)

	out, _, err = runCLI(t, []string{"ready"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	requireContains(t, out, "alpha-rip")
	if strings.Contains(out, "beta-rip") {
		t.Fatalf("errored folder should not be listed as ready: %q", out)
	}

	out, _, err = runCLI(t, []string{"show", "alpha-rip"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Seed Artist")
	requireContains(t, out, "Seed Album")

	out, _, err = runCLI(t, []string{"accept", "alpha-rip"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	requireContains(t, out, "Accepted; folder is now accepted")

	updated, err := env.store.GetByID(ctx, alpha.ID)
	if err != nil {
		t.Fatalf("lookup alpha: %v", err)
	}
	if updated.Status != jobs.StatusAccepted {
		t.Fatalf("expected accepted, got %s", updated.Status)
	}

	// Accepting twice must surface the daemon's conflict.
	if _, _, err := runCLI(t, []string{"accept", "alpha-rip"}, env.apiAddr, env.configPath); err == nil {
		t.Fatal("expected second accept to fail")
	}

	out, _, err = runCLI(t, []string{"reconsider", "beta-rip", "--feedback", "split the discs"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("reconsider: %v", err)
	}
	requireContains(t, out, "Queued for re-analysis")

	updated, err = env.store.GetByID(ctx, beta.ID)
	if err != nil {
		t.Fatalf("lookup beta: %v", err)
	}
	if updated.Status != jobs.StatusQueued {
		t.Fatalf("expected queued, got %s", updated.Status)
	}

	gamma := seedFolder(t, env, "gamma-rip", jobs.StatusReady)
	out, _, err = runCLI(t, []string{"skip", "gamma-rip"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("skip: %v", err)
	}
	requireContains(t, out, "Skipped; folder is now skipped")

	updated, err = env.store.GetByID(ctx, gamma.ID)
	if err != nil {
		t.Fatalf("lookup gamma: %v", err)
	}
	if updated.Status != jobs.StatusSkipped {
		t.Fatalf("expected skipped, got %s", updated.Status)
	}
}

func TestCLIAcceptOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	job := seedFolder(t, env, "override-rip", jobs.StatusReady)

	_, _, err := runCLI(t, []string{
		"accept", "override-rip",
		"--artist", "Override Artist",
		"--album", "Override Album",
		"--year", "1999",
	}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("accept with overrides: %v", err)
	}

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	proposal, ok := updated.Proposal()
	if !ok {
		t.Fatalf("expected accepted job to carry a proposal, got %q", updated.ProposalJSON)
	}
	if proposal.Artist != "Override Artist" || proposal.Album != "Override Album" || proposal.Year != 1999 {
		t.Fatalf("unexpected accepted proposal: %+v", proposal)
	}
}

func TestCLIJobsListing(t *testing.T) {
	env := setupCLITestEnv(t)

	seedFolder(t, env, "listed-rip", jobs.StatusCompleted)
	seedFolder(t, env, "stuck-rip", jobs.StatusError)

	out, _, err := runCLI(t, []string{"jobs"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, out, "listed-rip")
	requireContains(t, out, "stuck-rip")
	requireContains(t, out, "completed")
	requireContains(t, out, "seeded failure")
}

func TestCLIStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	seedFolder(t, env, "status-rip", jobs.StatusReady)
	seedFolder(t, env, "done-rip", jobs.StatusCompleted)

	out, _, err := runCLI(t, []string{"status"}, env.apiAddr, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running")
	requireContains(t, out, "Processed 1 of 2 folders")
	requireContains(t, out, "ready")
	requireContains(t, out, "Awaiting review:")
	requireContains(t, out, "status-rip")
}
