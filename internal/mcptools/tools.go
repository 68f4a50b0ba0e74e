// Package mcptools exposes league standings as MCP tools.
package mcptools

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Standings is the read side of the standings service used by the tools.
type Standings interface {
	Periods() []models.Period
	Session() *models.Session
	Selected() models.Period
	ResolvePeriod(query string) (models.Period, error)
	Standings(ctx context.Context, periodID string) (*models.Snapshot, error)
}

// Refresher runs a manual recompute of the selected period.
type Refresher interface {
	Trigger(ctx context.Context) (*models.Snapshot, error)
}

type ListPeriodsArgs struct{}

type PeriodStandingsArgs struct {
	Period string `json:"period" jsonschema:"Period id or name, e.g. oct-nov or October (empty = selected period)"`
}

type RefreshStandingsArgs struct{}

type periodInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Months    []int  `json:"months"`
	Gameweeks []int  `json:"gameweeks"`
	Selected  bool   `json:"selected"`
}

func NewServer(standings Standings, refresher Refresher, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "fplstandings",
			Version: version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_periods",
		Description: "Lists the two-month periods with the gameweeks each one covers this season",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListPeriodsArgs) (*mcp.CallToolResult, any, error) {
		var mapping models.PeriodMapping
		if session := standings.Session(); session != nil {
			mapping = session.Mapping
		}
		selected := standings.Selected().ID

		out := make([]periodInfo, 0, len(standings.Periods()))
		for _, p := range standings.Periods() {
			gameweeks := mapping[p.ID]
			if gameweeks == nil {
				gameweeks = []int{}
			}
			out = append(out, periodInfo{
				ID:        p.ID,
				Name:      p.Name,
				Months:    p.Months,
				Gameweeks: gameweeks,
				Selected:  p.ID == selected,
			})
		}
		return toolJSON(map[string]any{"periods": out}), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "period_standings",
		Description: "Ranked league standings for a period, including live gameweek points weighted by captaincy",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args PeriodStandingsArgs) (*mcp.CallToolResult, any, error) {
		period, err := standings.ResolvePeriod(args.Period)
		if err != nil {
			return toolError(err), nil, nil
		}
		snap, err := standings.Standings(ctx, period.ID)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(snap), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "refresh_standings",
		Description: "Recomputes the selected period now and returns the fresh standings",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RefreshStandingsArgs) (*mcp.CallToolResult, any, error) {
		snap, err := refresher.Trigger(ctx)
		if err != nil {
			return toolError(err), nil, nil
		}
		return toolJSON(snap), nil, nil
	})

	return server
}

// Handler serves server over streamable HTTP.
func Handler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func toolJSON(v any) *mcp.CallToolResult {
	b, _ := json.MarshalIndent(v, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
