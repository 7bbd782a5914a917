// Package driver implements a database/sql/driver for libSQL servers reached
// over the HTTP batch protocol.
//
// Usage:
//
//  1. Import the driver package. This will register the driver with the name "libsql".
//     import _ "github.com/tomyedwab/libsqlhttp/libsql/driver"
//
//  2. Open a database with a connection URL of the form
//     [<prefix>:]libsql:<server-url>. The authToken (or password) and clientId
//     query parameters are stripped from the server URL and used as the Bearer
//     token and User-Agent:
//
//     db, err := sqlx.Open("libsql", "libsql:https://db.example.com?authToken=...")
//     if err != nil {
//     // handle error
//     }
//     defer db.Close()
//
//  3. Use the *sql.DB as usual. Catalog views are available on the raw
//     connection:
//
//     conn.Raw(func(c any) error {
//     tables, err := c.(*driver.Conn).Catalog().Tables(ctx)
//     ...
//     })
//
// Every statement is sent as a single-statement batch. Statements are not
// prepared on the server; Prepare only records the SQL text.
//
// Limitations:
//
//   - Transactions are not supported. Begin and BeginTx return ErrTxNotSupported.
//   - LastInsertId is not reported by the protocol; use RETURNING instead.
//   - Failed calls are never retried.
package driver
