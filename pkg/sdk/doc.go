// Package quest is a Go client for the Quest conversational search API.
//
// A search is a stream: the server sends one or more result snapshots, then
// the answer in pieces, then the suggested follow-up questions.
//
//	client, _ := quest.New("http://localhost:8080", quest.WithUserID("u-42"))
//	answer, _ := client.Search(ctx, quest.SearchRequest{Query: "best ramen in tokyo"},
//	    func(f quest.Frame) error {
//	        if f.Delta != "" {
//	            fmt.Print(f.Delta)
//	        }
//	        return nil
//	    })
//
//	// continue the conversation in the same thread
//	next, _ := client.Search(ctx, quest.SearchRequest{
//	    Query:    answer.FollowUps[0],
//	    ThreadID: answer.ThreadID(),
//	}, nil)
//
// Threads, the news feed and the health report are plain request/response calls.
package quest
