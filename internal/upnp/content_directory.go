package upnp

import (
	"context"
	"strconv"
)

// Browse flags of the ContentDirectory Browse action.
const (
	BrowseChildren = "BrowseDirectChildren"
	BrowseMetadata = "BrowseMetadata"
)

// BrowseResult carries the DIDL-Lite payload of a Browse or Search call.
type BrowseResult struct {
	Result         string
	NumberReturned int
	TotalMatches   int
	UpdateID       int
}

// BrowseOptions hold the optional arguments of Browse and Search.
// The zero value browses everything unfiltered.
type BrowseOptions struct {
	Filter         string
	StartingIndex  int
	RequestedCount int
	SortCriteria   string
}

func (o BrowseOptions) filter() string {
	if o.Filter == "" {
		return "*"
	}
	return o.Filter
}

func (c *Client) Browse(ctx context.Context, location, objectID, browseFlag string, opts BrowseOptions) (BrowseResult, error) {
	resp, err := c.soapCall(ctx, location, urnContentDirectory, "Browse", map[string]string{
		"ObjectID":       objectID,
		"BrowseFlag":     browseFlag,
		"Filter":         opts.filter(),
		"StartingIndex":  strconv.Itoa(opts.StartingIndex),
		"RequestedCount": strconv.Itoa(opts.RequestedCount),
		"SortCriteria":   opts.SortCriteria,
	})
	if err != nil {
		return BrowseResult{}, err
	}
	return browseResultOf(resp), nil
}

func (c *Client) Search(ctx context.Context, location, containerID, searchCriteria string, opts BrowseOptions) (BrowseResult, error) {
	resp, err := c.soapCall(ctx, location, urnContentDirectory, "Search", map[string]string{
		"ContainerID":    containerID,
		"SearchCriteria": searchCriteria,
		"Filter":         opts.filter(),
		"StartingIndex":  strconv.Itoa(opts.StartingIndex),
		"RequestedCount": strconv.Itoa(opts.RequestedCount),
		"SortCriteria":   opts.SortCriteria,
	})
	if err != nil {
		return BrowseResult{}, err
	}
	return browseResultOf(resp), nil
}

func browseResultOf(resp map[string]string) BrowseResult {
	returned, _ := strconv.Atoi(resp["NumberReturned"])
	total, _ := strconv.Atoi(resp["TotalMatches"])
	updateID, _ := strconv.Atoi(resp["UpdateID"])
	return BrowseResult{
		Result:         resp["Result"],
		NumberReturned: returned,
		TotalMatches:   total,
		UpdateID:       updateID,
	}
}
