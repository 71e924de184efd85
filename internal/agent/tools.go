package agent

import (
	"context"
)

const (
	ToolFlightSearch = "FlightSearch"
	ToolPolicyQA     = "PolicyQA"

	FlightSearchDescription = "Use this to search for flights using natural queries that include destination, date, airlines, budget, etc."
	PolicyQADescription     = "Use this to answer questions about travel visa or refund policies."
)

// Tool is a named capability the router can delegate to.
type Tool struct {
	Name        string
	Description string
	Run         func(ctx context.Context, input string) (string, error)
}

type FlightSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

type PolicyAnswerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

func FlightSearchTool(search FlightSearcher) Tool {
	return Tool{
		Name:        ToolFlightSearch,
		Description: FlightSearchDescription,
		Run:         search.Search,
	}
}

func PolicyQATool(qa PolicyAnswerer) Tool {
	return Tool{
		Name:        ToolPolicyQA,
		Description: PolicyQADescription,
		Run:         qa.Answer,
	}
}
