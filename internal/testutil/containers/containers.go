// Package containers starts disposable backends for integration tests.
// Every helper skips the test under -short and terminates its container on
// cleanup.
package containers

import (
	"context"
	"testing"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func requireDocker(tb testing.TB) {
	tb.Helper()
	if testing.Short() {
		tb.Skip("requires docker")
	}
}

func terminateOnCleanup(tb testing.TB, name string, c testcontainers.Container) {
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			tb.Errorf("terminate %s container: %v", name, err)
		}
	})
}

// startGeneric runs req and returns host:port of its first exposed port.
func startGeneric(tb testing.TB, name string, req testcontainers.ContainerRequest) string {
	tb.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		tb.Fatalf("start %s container: %v", name, err)
	}
	terminateOnCleanup(tb, name, c)

	endpoint, err := c.Endpoint(ctx, "")
	if err != nil {
		tb.Fatalf("get %s endpoint: %v", name, err)
	}
	return endpoint
}

// retry calls fn until it succeeds or the deadline passes.
func retry(deadline time.Duration, pause time.Duration, fn func(ctx context.Context) error) error {
	end := time.Now().Add(deadline)
	var lastErr error
	for time.Now().Before(end) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lastErr = fn(ctx)
		cancel()
		if lastErr == nil {
			return nil
		}
		time.Sleep(pause)
	}
	if lastErr == nil {
		lastErr = context.DeadlineExceeded
	}
	return lastErr
}

// Postgres starts PostgreSQL and returns a DSN that accepts connections.
func Postgres(tb testing.TB) string {
	tb.Helper()
	requireDocker(tb)

	ctx := context.Background()
	c, err := postgres.Run(
		ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("docsync"),
		postgres.WithUsername("docsync"),
		postgres.WithPassword("docsync"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		tb.Fatalf("start postgres container: %v", err)
	}
	terminateOnCleanup(tb, "postgres", c)

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil || dsn == "" {
		tb.Fatalf("build postgres connection string: %v", err)
	}
	err = retry(20*time.Second, 250*time.Millisecond, func(ctx context.Context) error {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return err
		}
		defer conn.Close(ctx)
		return conn.Ping(ctx)
	})
	if err != nil {
		tb.Fatalf("postgres is not ready for connections: %v", err)
	}
	return dsn
}

// Mongo starts MongoDB and returns its connection URI.
func Mongo(tb testing.TB) string {
	tb.Helper()
	requireDocker(tb)

	ctx := context.Background()
	c, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		tb.Fatalf("start mongodb container: %v", err)
	}
	terminateOnCleanup(tb, "mongodb", c)

	uri, err := c.ConnectionString(ctx)
	if err != nil {
		tb.Fatalf("build mongodb connection string: %v", err)
	}
	return uri
}

// Redis starts Redis and returns a redis:// URL.
func Redis(tb testing.TB) string {
	tb.Helper()
	requireDocker(tb)

	addr := startGeneric(tb, "redis", testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	})
	return "redis://" + addr
}

// InfinispanEndpoint is a running Infinispan RESP endpoint.
type InfinispanEndpoint struct {
	Host     string
	Username string
	Password string
}

// Infinispan starts Infinispan with its RESP connector and waits until it
// answers PING over RESP2.
func Infinispan(tb testing.TB) InfinispanEndpoint {
	tb.Helper()
	requireDocker(tb)

	ep := InfinispanEndpoint{Username: "admin", Password: "password"}
	ep.Host = startGeneric(tb, "infinispan", testcontainers.ContainerRequest{
		Image:        "quay.io/infinispan/server:15.2",
		ExposedPorts: []string{"11222/tcp"},
		Env:          map[string]string{"USER": ep.Username, "PASS": ep.Password},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("11222/tcp"),
			wait.ForLog("Started connector Resp"),
		).WithDeadline(90 * time.Second),
	})

	client := goredis.NewClient(&goredis.Options{
		Addr:     ep.Host,
		Username: ep.Username,
		Password: ep.Password,
		Protocol: 2,
	})
	defer client.Close()
	if err := retry(60*time.Second, time.Second, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}); err != nil {
		tb.Fatalf("infinispan RESP not ready: %v", err)
	}
	return ep
}

// S3 starts LocalStack, creates bucket, and points the AWS SDK environment
// (AWS_ENDPOINT_URL and static credentials) at it.
func S3(tb testing.TB, bucket string) {
	tb.Helper()
	requireDocker(tb)

	endpoint := "http://" + startGeneric(tb, "localstack", testcontainers.ContainerRequest{
		Image:        "localstack/localstack:latest",
		ExposedPorts: []string{"4566/tcp"},
		Env:          map[string]string{"SERVICES": "s3"},
		WaitingFor:   wait.ForListeningPort("4566/tcp").WithStartupTimeout(90 * time.Second),
	})

	tb.Setenv("AWS_ENDPOINT_URL", endpoint)
	tb.Setenv("AWS_ACCESS_KEY_ID", "test")
	tb.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	tb.Setenv("AWS_REGION", "us-east-1")

	ctx := context.Background()
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		awsconfig.WithRegion("us-east-1"),
	)
	if err != nil {
		tb.Fatalf("load aws config: %v", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = &endpoint
		o.UsePathStyle = true
	})
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: &bucket}); err != nil {
		tb.Fatalf("create bucket %s: %v", bucket, err)
	}
}
