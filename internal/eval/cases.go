package eval

import (
	"github.com/kailas-cloud/hybridrag/internal/knowledgebase"
	"github.com/kailas-cloud/hybridrag/internal/rules"
)

// DefaultCases covers the knowledge base questions, the ad-hoc similarity
// sample and every function template.
func DefaultCases() []Case {
	return []Case{
		{
			Name:           "kb-fat-arrow",
			Query:          "What does the author affectionately call the => syntax?",
			ExpectStrategy: "rule",
			ExpectSource:   knowledgebase.SourceArrowFunctions,
		},
		{
			Name:           "kb-double-bang",
			Query:          "Which operator converts any value into an explicit boolean?",
			ExpectStrategy: "rule",
			ExpectSource:   knowledgebase.SourceOperators,
		},
		{
			Name:  "similarity-sample",
			Query: "How to build REST APIs with Python?",
			Docs: []string{
				"Python is a high-level programming language.",
				"FastAPI is a modern web framework for building APIs.",
				"Machine learning models require large datasets.",
				"Semantic search uses embeddings to find relevant documents.",
			},
			ExpectStrategy: "embedding",
			ExpectMatches:  3,
		},
		{
			Name:            "fn-ticket-status",
			Query:           "What is the status of ticket 83742?",
			ExpectFunction:  rules.FuncGetTicketStatus,
			ExpectArguments: `{"ticket_id": 83742}`,
		},
		{
			Name:            "fn-schedule-meeting",
			Query:           "Schedule a meeting on 2025-02-15 at 14:00 in Room A.",
			ExpectFunction:  rules.FuncScheduleMeeting,
			ExpectArguments: `{"date": "2025-02-15", "time": "14:00", "meeting_room": "Room A"}`,
		},
		{
			Name:            "fn-expense-balance",
			Query:           "Show my expense balance for employee 10056.",
			ExpectFunction:  rules.FuncGetExpenseBalance,
			ExpectArguments: `{"employee_id": 10056}`,
		},
		{
			Name:            "fn-performance-bonus",
			Query:           "Calculate performance bonus for employee 10056 for 2025.",
			ExpectFunction:  rules.FuncCalculatePerformanceBonus,
			ExpectArguments: `{"employee_id": 10056, "current_year": 2025}`,
		},
		{
			Name:            "fn-office-issue",
			Query:           "Report office issue 45321 for the Facilities department.",
			ExpectFunction:  rules.FuncReportOfficeIssue,
			ExpectArguments: `{"issue_code": 45321, "department": "Facilities"}`,
		},
	}
}
