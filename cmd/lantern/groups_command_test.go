package main

import (
	"encoding/json"
	"strings"
	"testing"

	"lantern/internal/deployapi"
)

func groupsEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	return setupCLITestEnv(t, &fakeDeployService{
		status: deployapi.StatusInProgress,
		groups: []string{"app/deploy-1", "app/deploy-2", "ops/cron"},
	})
}

func TestGroupsListsByPrefix(t *testing.T) {
	env := groupsEnv(t)

	stdout, _, err := runCLI(t, []string{"groups", "--prefix", "app/"}, env.configPath)
	if err != nil {
		t.Fatalf("groups: %v", err)
	}
	requireContains(t, stdout, "app/deploy-1")
	requireContains(t, stdout, "app/deploy-2")
	if strings.Contains(stdout, "ops/cron") {
		t.Fatalf("group outside the prefix listed:\n%s", stdout)
	}
}

func TestGroupsPatternNarrowsJSON(t *testing.T) {
	env := groupsEnv(t)

	stdout, _, err := runCLI(t, []string{"groups", "--prefix", "app/", "--pattern", "deploy-1$", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("groups --json: %v", err)
	}

	var groups []struct {
		Name      string `json:"Name"`
		MatchedBy string `json:"MatchedBy"`
	}
	if err := json.Unmarshal([]byte(stdout), &groups); err != nil {
		t.Fatalf("parse output: %v\n%s", err, stdout)
	}
	if len(groups) != 1 || groups[0].Name != "app/deploy-1" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if groups[0].MatchedBy != "pattern" {
		t.Fatalf("unexpected match source %+v", groups[0])
	}
}

func TestGroupsRejectsUnknownFilterMode(t *testing.T) {
	env := groupsEnv(t)

	_, _, err := runCLI(t, []string{"groups", "--prefix", "app/", "--filter-mode", "union"}, env.configPath)
	if err == nil {
		t.Fatal("expected an error for an unknown filter mode")
	}
}
