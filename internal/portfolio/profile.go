// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package portfolio

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfile []byte

// Profile is the content the portfolio verbs present.
type Profile struct {
	Name     string    `yaml:"name"`
	Title    string    `yaml:"title"`
	User     string    `yaml:"user"`
	About    string    `yaml:"about"`
	Projects []Project `yaml:"projects"`
	Contact  Contact   `yaml:"contact"`

	// Apps are the desktop windows `open` accepts
	Apps []string `yaml:"apps"`
}

// Project is one portfolio entry.
type Project struct {
	Slug    string   `yaml:"slug"`
	Name    string   `yaml:"name"`
	Summary string   `yaml:"summary"`
	URL     string   `yaml:"url"`
	Tags    []string `yaml:"tags"`
}

// Contact lists ways to reach the portfolio owner.
type Contact struct {
	Email  string `yaml:"email"`
	GitHub string `yaml:"github"`
	Site   string `yaml:"site"`
}

// DefaultProfile returns the bundled profile.
func DefaultProfile() *Profile {
	p, err := parseProfile(defaultProfile)
	if err != nil {
		panic(fmt.Sprintf("portfolio: bundled profile: %v", err))
	}
	return p
}

// LoadProfile reads a profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := parseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

func parseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, fmt.Errorf("profile has no name")
	}
	if p.User == "" {
		p.User = "guest"
	}
	return &p, nil
}

// Project returns the project with the given slug.
func (p *Profile) Project(slug string) (Project, bool) {
	for _, pr := range p.Projects {
		if pr.Slug == slug {
			return pr, true
		}
	}
	return Project{}, false
}

// Slugs returns the project slugs in profile order.
func (p *Profile) Slugs() []string {
	out := make([]string, len(p.Projects))
	for i, pr := range p.Projects {
		out[i] = pr.Slug
	}
	return out
}

// HasApp reports whether name is an openable app.
func (p *Profile) HasApp(name string) bool {
	for _, a := range p.Apps {
		if a == name {
			return true
		}
	}
	return false
}
