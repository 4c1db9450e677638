package jma

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Office is one forecast office entry of the area catalog.
type Office struct {
	Name       string   `json:"name"`
	EnName     string   `json:"enName"`
	OfficeName string   `json:"officeName"`
	Parent     string   `json:"parent"`
	Children   []string `json:"children"`
}

// AreaCatalog is the subset of common/const/area.json the pipeline needs.
type AreaCatalog struct {
	Offices map[string]Office `json:"offices"`
}

// OfficeCodes returns the office codes in ascending order, minus skip.
func (a AreaCatalog) OfficeCodes(skip []string) []string {
	codes := make([]string, 0, len(a.Offices))
	for code := range a.Offices {
		if slices.Contains(skip, code) {
			continue
		}
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// FetchAreaCatalog downloads the list of forecast offices.
func (c *Client) FetchAreaCatalog(ctx context.Context) (AreaCatalog, error) {
	body, err := c.get(ctx, "areas", c.endpoint("common/const/area.json"))
	if err != nil {
		return AreaCatalog{}, fmt.Errorf("fetch area catalog: %w", err)
	}
	var catalog AreaCatalog
	if err := json.Unmarshal(body, &catalog); err != nil {
		return AreaCatalog{}, fmt.Errorf("decode area catalog: %w", err)
	}
	if len(catalog.Offices) == 0 {
		return AreaCatalog{}, fmt.Errorf("decode area catalog: no offices")
	}
	return catalog, nil
}

// ListOffices returns every office code in the catalog, ascending.
func (c *Client) ListOffices(ctx context.Context) ([]string, error) {
	catalog, err := c.FetchAreaCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.OfficeCodes(nil), nil
}
