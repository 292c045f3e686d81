// Package hybridrag is an embeddable hybrid retrieval engine.
//
// A query is first checked against deterministic shortcut rules (keyword
// predicates and function-call templates). When no rule matches, the query and
// every corpus document are embedded in one batch and ranked by cosine
// similarity.
//
// # Knowledge base search
//
//	client, _ := hybridrag.New()              // mock embeddings, TypeScript Book excerpts
//	ans, _ := client.Search(ctx, "What does the author affectionately call the => syntax?")
//	fmt.Println(ans.Matches[0].Source)        // TypeScript Book - Arrow Functions
//
// # Ad-hoc ranking
//
//	client, _ := hybridrag.New(hybridrag.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""))
//	top, _ := client.Similar(ctx, "How to build REST APIs with Python?", docs, 3)
//
// # Function calls
//
//	call, _ := client.Execute(ctx, "What is the status of ticket 83742?")
//	fmt.Println(call.Name, call.ArgumentsJSON) // get_ticket_status {"ticket_id": 83742}
package hybridrag
