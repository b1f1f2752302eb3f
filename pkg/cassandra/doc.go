// Package cassandra provides the CQL query executor used by phalanx.
//
// A Client wraps a gocql session configured from ClientOptions. The session is
// dialed on first use, so a Client scoped to a keyspace that does not exist yet
// can be constructed before the keyspace is created.
//
// Key features:
//   - Query, Exec and conditional (IF NOT EXISTS) execution with context support
//   - Rows returned as column-name keyed maps
//   - Consistency level parsing from configuration strings
//   - Password authentication and TLS/mTLS transport
//
// Example usage:
//
//	client := cassandra.NewClient(cassandra.ClientOptions{
//		Hosts:           []string{"127.0.0.1"},
//		Port:            9042,
//		ProtocolVersion: 4,
//		Consistency:     gocql.Quorum,
//	})
//	defer client.Close()
//
//	rows, err := client.Query(ctx, "SELECT keyspace_name FROM system_schema.keyspaces")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, row := range rows {
//		fmt.Println(row["keyspace_name"])
//	}
package cassandra
