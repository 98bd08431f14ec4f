// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package testHelpers

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const FedoraUser = "fedoraAdmin"
const FedoraPassword = "fedoraAdmin"

type RedisContainer struct {
	// host:port as expected by the redis client
	Address   string
	Container testcontainers.Container
}

func NewRedisContainer() (RedisContainer, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return RedisContainer{}, fmt.Errorf("failed to start redis container: %w", err)
	}

	port, err := redisC.MappedPort(ctx, "6379/tcp")
	if err != nil {
		return RedisContainer{}, err
	}
	host, err := redisC.Host(ctx)
	if err != nil {
		return RedisContainer{}, err
	}

	return RedisContainer{Address: host + ":" + port.Port(), Container: redisC}, nil
}

type FedoraContainer struct {
	// e.g. http://localhost:32768/fcrepo/rest
	BaseUri   string
	Container testcontainers.Container
}

// NewFedoraContainer starts a single repository with the default admin credentials
func NewFedoraContainer() (FedoraContainer, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "fcrepo/fcrepo:6.5.1-tomcat9",
		ExposedPorts: []string{"8080/tcp"},
		WaitingFor: wait.ForHTTP("/fcrepo/rest").
			WithPort("8080/tcp").
			// anything but a connection error means tomcat is serving the webapp
			WithStatusCodeMatcher(func(status int) bool { return status == 200 || status == 401 }).
			WithStartupTimeout(3 * time.Minute),
	}
	fedoraC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return FedoraContainer{}, fmt.Errorf("failed to start fedora container: %w", err)
	}

	port, err := fedoraC.MappedPort(ctx, "8080/tcp")
	if err != nil {
		return FedoraContainer{}, err
	}
	host, err := fedoraC.Host(ctx)
	if err != nil {
		return FedoraContainer{}, err
	}

	return FedoraContainer{
		BaseUri:   "http://" + host + ":" + port.Port() + "/fcrepo/rest",
		Container: fedoraC,
	}, nil
}
