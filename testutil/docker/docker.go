// Package docker launches throwaway containers for integration tests.
package docker

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

type ExposedPort struct {
	HostPort      int
	ContainerPort int
}

func newClient() *client.Client {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		panic(err)
	}
	return cli
}

// LaunchContainer pulls image, starts it with the ports published on the
// host, and waits until every host port accepts connections. It panics on
// failure, so it is meant to be called from TestMain.
func LaunchContainer(image string, exposePorts []ExposedPort, cmd, env []string) (containerID string) {
	ctx := context.Background()
	cli := newClient()

	reader, err := cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		panic(err)
	}

	_, _ = io.Copy(os.Stdout, reader)

	cfg := &container.Config{
		Image:        image,
		ExposedPorts: nat.PortSet{},
		Env:          env,
		Cmd:          cmd,
	}

	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{},
	}

	for _, port := range exposePorts {
		p, _ := nat.NewPort("tcp", strconv.Itoa(port.ContainerPort))
		cfg.ExposedPorts[p] = struct{}{}

		hostCfg.PortBindings[p] = append(hostCfg.PortBindings[p], nat.PortBinding{
			HostPort: strconv.Itoa(port.HostPort),
		})
	}

	resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		panic(err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, types.ContainerStartOptions{}); err != nil {
		panic("container starting: " + err.Error())
	}

	deadline := time.Now().Add(60 * time.Second)
	for _, port := range exposePorts {
		if err := waitForPort(port.HostPort, deadline); err != nil {
			panic("timed out waiting for container to start: " + err.Error())
		}
	}

	return resp.ID
}

func waitForPort(port int, deadline time.Time) error {
	for {
		con, err := net.DialTCP("tcp", nil, &net.TCPAddr{
			IP:   net.IPv4(127, 0, 0, 1),
			Port: port,
		})
		if err == nil {
			return con.Close()
		}

		if time.Now().After(deadline) {
			return err
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func KillContainer(containerID string) {
	ctx := context.Background()
	cli := newClient()

	timeout := 10 * time.Second

	if err := cli.ContainerStop(ctx, containerID, &timeout); err != nil {
		fmt.Println("error stopping container: " + err.Error())
	}

	err := cli.ContainerRemove(ctx, containerID, types.ContainerRemoveOptions{Force: true})
	if err != nil {
		fmt.Println("error removing container: " + err.Error())
	}
}
