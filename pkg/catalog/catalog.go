package catalog

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Tool names advertised by the catalog. The dispatcher in pkg/mcp handles
// exactly this set; TestDispatchCoversCatalog keeps the two in sync.
const (
	ToolBeerInfo     = "get_beer_info"
	ToolBeerSearch   = "search_beer"
	ToolUserCheckins = "get_user_checkins"
)

// DefaultCheckinLimit is applied when get_user_checkins omits limit.
const DefaultCheckinLimit = 25

type Descriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

var descriptors = []Descriptor{
	newDescriptor(
		ToolBeerInfo,
		"Get detailed information about a beer by its Untappd beer ID",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"beer_id": map[string]interface{}{
					"type":        "string",
					"description": "Untappd beer ID",
				},
			},
			"required": []string{"beer_id"},
		},
	),
	newDescriptor(
		ToolBeerSearch,
		"Search the Untappd catalog for beers matching a query",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search terms, e.g. a beer or brewery name",
				},
			},
			"required": []string{"query"},
		},
	),
	newDescriptor(
		ToolUserCheckins,
		"Get recent check-ins for the authenticated user",
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of check-ins to return (default 25)",
				},
			},
		},
	),
}

func newDescriptor(name, description string, schema map[string]interface{}) Descriptor {
	data, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return Descriptor{
		Name:        name,
		Description: description,
		InputSchema: data,
	}
}

// Descriptors returns the advertised tool catalog in stable order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// InvalidArgsError reports arguments that fail validation against a tool's
// declared schema, before any upstream call is made.
type InvalidArgsError struct {
	Tool   string
	Reason string
}

func (e *InvalidArgsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Reason)
}

// Request is a validated tool invocation reduced to the upstream GET it maps
// to. Each tool decodes into its own argument struct and builds one of these.
type Request struct {
	Path  string
	Query url.Values
}

type BeerInfoArgs struct {
	BeerID string `json:"beer_id"`
}

func (a BeerInfoArgs) Request() Request {
	return Request{Path: "/beer/info/" + url.PathEscape(a.BeerID)}
}

type BeerSearchArgs struct {
	Query string `json:"query"`
}

func (a BeerSearchArgs) Request() Request {
	return Request{Path: "/search/beer", Query: url.Values{"q": {a.Query}}}
}

type UserCheckinsArgs struct {
	Limit int
}

func (a UserCheckinsArgs) Request() Request {
	return Request{Path: "/user/checkins", Query: url.Values{"limit": {strconv.Itoa(a.Limit)}}}
}

// DecodeBeerInfo validates and decodes get_beer_info arguments.
func DecodeBeerInfo(raw json.RawMessage) (BeerInfoArgs, error) {
	var args BeerInfoArgs
	if err := decode(ToolBeerInfo, raw, &args); err != nil {
		return BeerInfoArgs{}, err
	}
	if args.BeerID == "" {
		return BeerInfoArgs{}, &InvalidArgsError{Tool: ToolBeerInfo, Reason: "beer_id is required"}
	}
	return args, nil
}

// DecodeBeerSearch validates and decodes search_beer arguments.
func DecodeBeerSearch(raw json.RawMessage) (BeerSearchArgs, error) {
	var args BeerSearchArgs
	if err := decode(ToolBeerSearch, raw, &args); err != nil {
		return BeerSearchArgs{}, err
	}
	if args.Query == "" {
		return BeerSearchArgs{}, &InvalidArgsError{Tool: ToolBeerSearch, Reason: "query is required"}
	}
	return args, nil
}

// DecodeUserCheckins validates and decodes get_user_checkins arguments,
// applying the default limit when omitted. The schema declares limit as a
// JSON number, so fractional literals like 25.0 decode fine and truncate.
func DecodeUserCheckins(raw json.RawMessage) (UserCheckinsArgs, error) {
	var fields struct {
		Limit *float64 `json:"limit"`
	}
	if err := decode(ToolUserCheckins, raw, &fields); err != nil {
		return UserCheckinsArgs{}, err
	}
	args := UserCheckinsArgs{Limit: DefaultCheckinLimit}
	if fields.Limit != nil {
		args.Limit = int(*fields.Limit)
	}
	if args.Limit <= 0 {
		return UserCheckinsArgs{}, &InvalidArgsError{Tool: ToolUserCheckins, Reason: "limit must be positive"}
	}
	return args, nil
}

func decode(tool string, raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return &InvalidArgsError{Tool: tool, Reason: err.Error()}
	}
	return nil
}
