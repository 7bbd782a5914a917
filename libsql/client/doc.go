// Package client is a Go client for the libSQL HTTP batch protocol.
//
// A batch is a single POST carrying one or more SQL statements. Each statement
// is either plain SQL or SQL plus positional or named parameters, and the
// server answers with one result (or error) per statement, in order.
//
// # Basic Usage
//
//	c := client.New("https://db.example.turso.io",
//		client.WithAuthToken(os.Getenv("LIBSQL_AUTH_TOKEN")),
//	)
//
//	stmt, err := client.NewStatement("SELECT name FROM users WHERE id = ?", 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := c.Execute(ctx, stmt)
//	if err != nil {
//		log.Fatal(err)
//	}
//	cur := res.Cursor()
//	for cur.Next() {
//		name, _ := cur.String("name")
//		fmt.Println(name)
//	}
//
// # Error Handling
//
// Errors are *Error values carrying an ErrorType:
//
//	if _, err := c.ExecuteBatch(ctx, stmts); err != nil {
//		switch {
//		case client.IsAuthenticationError(err):
//			log.Println("token missing or expired")
//		case client.IsStatementError(err):
//			log.Printf("server rejected a statement: %v", err)
//		case client.IsNetworkError(err):
//			log.Println("network connectivity issue")
//		}
//	}
//
// A batch never partially succeeds: if any statement reports an error the
// whole call fails and no results are returned. Nothing is retried.
package client
