package rules

// Function names produced by the function-call templates.
const (
	FuncGetTicketStatus           = "get_ticket_status"
	FuncScheduleMeeting           = "schedule_meeting"
	FuncGetExpenseBalance         = "get_expense_balance"
	FuncCalculatePerformanceBonus = "calculate_performance_bonus"
	FuncReportOfficeIssue         = "report_office_issue"
)

// Word characters in free-text slots include non-ASCII letters and digits.
const (
	wordChars  = `\p{L}\p{N}_`
	spaceChars = `\s\p{Zs}`
)

// Functions returns the function-call templates of the office assistant deployment.
func Functions() *Matcher {
	return MustNew(
		TemplateRule(MustTemplate(FuncGetTicketStatus,
			"What is the status of ticket {ticket_id}?",
			Int("ticket_id"))),
		TemplateRule(MustTemplate(FuncScheduleMeeting,
			"Schedule a meeting on {date} at {time} in {meeting_room}.",
			Text("date", `[\d-]+`), Text("time", `[\d:]+`), Text("meeting_room", `Room [`+wordChars+`]+`))),
		TemplateRule(MustTemplate(FuncGetExpenseBalance,
			"Show my expense balance for employee {employee_id}.",
			Int("employee_id"))),
		TemplateRule(MustTemplate(FuncCalculatePerformanceBonus,
			"Calculate performance bonus for employee {employee_id} for {current_year}.",
			Int("employee_id"), Int("current_year"))),
		TemplateRule(MustTemplate(FuncReportOfficeIssue,
			"Report office issue {issue_code} for the {department} department.",
			Int("issue_code"), Text("department", `[`+wordChars+spaceChars+`]+`))),
	)
}
