package storage

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/infrahq/trustlist/testutil/docker"
)

// The Vault and S3 backends are tested against containers. Set
// TRUSTLIST_DOCKER_TESTS=1 to run them.

func TestMain(m *testing.M) {
	flag.Parse()
	setup()

	result := m.Run()

	teardown()
	os.Exit(result)
}

var containerIDs []string

const (
	minioUser     = "trustlist"
	minioPassword = "trustlist-secret"
)

func dockerTestsEnabled() bool {
	return !testing.Short() && os.Getenv("TRUSTLIST_DOCKER_TESTS") != ""
}

func setup() {
	if !dockerTestsEnabled() {
		return
	}

	containerID := docker.LaunchContainer("vault", []docker.ExposedPort{
		{HostPort: 8200, ContainerPort: 8200},
	},
		nil,
		[]string{
			`VAULT_LOCAL_CONFIG={"disable_mlock":true}`,
			"SKIP_SETCAP=true",
			`VAULT_DEV_ROOT_TOKEN_ID=root`,
		},
	)
	containerIDs = append(containerIDs, containerID)

	containerID = docker.LaunchContainer("minio/minio", []docker.ExposedPort{
		{HostPort: 9000, ContainerPort: 9000},
	},
		[]string{"server", "/data"},
		[]string{
			"MINIO_ROOT_USER=" + minioUser,
			"MINIO_ROOT_PASSWORD=" + minioPassword,
		},
	)
	containerIDs = append(containerIDs, containerID)
}

func teardown() {
	for _, containerID := range containerIDs {
		docker.KillContainer(containerID)
	}
}

func eachRemoteStorage(t *testing.T, eachFunc func(t *testing.T, s Storage)) {
	if !dockerTestsEnabled() {
		t.Skip("docker tests are disabled")
		return
	}

	storages := map[string]Storage{}

	v, err := NewVaultFromConfig(VaultConfig{Address: "http://localhost:8200", Token: "root", Mount: "secret", Prefix: "trustlist"})
	require.NoError(t, err)
	waitForVaultReady(t, v)
	storages["vault"] = v

	s, err := NewS3FromConfig(S3Config{
		Endpoint:  "localhost:9000",
		Bucket:    "trustlist",
		AccessKey: minioUser,
		SecretKey: minioPassword,
	})
	require.NoError(t, err)
	waitForS3Ready(t, s)
	storages["s3"] = s

	for name, s := range storages {
		t.Run(name, func(t *testing.T) {
			eachFunc(t, s)
		})
	}
}

func TestRemoteStorage_RoundTrip(t *testing.T) {
	eachRemoteStorage(t, func(t *testing.T, s Storage) {
		ctx := context.Background()

		_, err := s.Read(ctx, "missing.json")
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Write(ctx, "de.json", []byte(`[{"id":"A"},{"id":"B"}]`)))
		require.NoError(t, s.Write(ctx, "de.json", []byte(`[{"id":"A"}]`)))

		b, err := s.Read(ctx, "de.json")
		require.NoError(t, err)
		require.Equal(t, []byte(`[{"id":"A"}]`), b)
	})
}

func waitForVaultReady(t *testing.T, v *Vault) {
	deadline := time.Now().Add(10 * time.Second)
	for {
		h, _ := v.client.Sys().Health()
		if h != nil && h.Initialized && !h.Sealed {
			return // ready!
		}
		if time.Now().After(deadline) {
			t.Error("timeout waiting for vault to be ready")
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func waitForS3Ready(t *testing.T, s *S3) {
	ctx := context.Background()
	deadline := time.Now().Add(30 * time.Second)
	for {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err == nil {
			if !exists {
				require.NoError(t, s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}))
			}
			return
		}
		if time.Now().After(deadline) {
			t.Errorf("timeout waiting for s3 to be ready: %v", err)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
