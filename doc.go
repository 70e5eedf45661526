// Package faqdex embeds the FAQ retrieval and answer pipeline in a Go program
// without running the HTTP service.
//
//	client, _ := faqdex.New(
//	    faqdex.WithRedis("localhost:6379", ""),
//	    faqdex.WithEmbedder(myEmbedder),
//	    faqdex.WithCompleter(myCompleter),
//	)
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx, []faqdex.Entry{{Question: "...", Answer: "...", Category: "konto"}})
//	results, _ := client.Search(ctx, "Passwort vergessen", 3, faqdex.SearchOptions{Category: "konto"})
//	answer, _ := client.Ask(ctx, "Wie ändere ich mein Passwort?", 3, faqdex.AskOptions{})
package faqdex
