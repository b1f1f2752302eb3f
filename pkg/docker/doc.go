// Package docker runs temporary Cassandra instances for integration testing
// migrations against a real cluster.
//
// Containers are managed with testcontainers-go. Each container exposes the
// native protocol port on a random host port and is removed when stopped.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version: "4.1",
//	})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	host, port, err := container.Endpoint(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client := cassandra.NewClient(cassandra.ClientOptions{
//		Hosts:           []string{host},
//		Port:            port,
//		ProtocolVersion: 4,
//		Consistency:     gocql.One,
//	})
//	defer client.Close()
//
// A custom cassandra.yaml can be supplied with DockerOptions.ConfigFile, for
// example to enable authentication or client TLS.
package docker
