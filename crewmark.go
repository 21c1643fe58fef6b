/*
Copyright 2025 Crewmark Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package crewmark

import (
	"embed"
	"fmt"

	"github.com/crewmark/crewmark/config"
	"github.com/crewmark/crewmark/database"
	redis_db "github.com/crewmark/crewmark/internal/redis-db"
	"github.com/crewmark/crewmark/internal/search"
	"github.com/redis/go-redis/v9"
)

// Crewmark represents the main struct for the Crewmark application.
type Crewmark struct {
	queue      *Queue
	search     *search.TypesenseClient
	redis      redis.UniversalClient
	datasource database.IDataSource
	storage    ObjectStore
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewCrewmark initializes a new instance of Crewmark with the provided database datasource.
// It fetches the configuration, initializes the Redis client, queue, object store, and search client.
//
// Parameters:
// - db database.IDataSource: The datasource for database operations.
//
// Returns:
// - *Crewmark: A pointer to the newly created Crewmark instance.
// - error: An error if any of the initialization steps fail.
func NewCrewmark(db database.IDataSource) (*Crewmark, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)})
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)
	newSearch := search.NewTypesenseClient(configuration.TypeSenseKey, []string{configuration.TypeSense.Dns})
	store, err := NewS3ObjectStore(configuration)
	if err != nil {
		return nil, err
	}

	newCrewmark := &Crewmark{
		datasource: db,
		queue:      newQueue,
		redis:      redisClient.Client(),
		search:     newSearch,
		storage:    store,
	}
	return newCrewmark, nil
}
