package storage

import (
	_ "embed"
)

const (
	upsertFixSQL = `
INSERT INTO last_fix (id,
                      timestamp,
                      latitude,
                      longitude,
                      altitude,
                      accuracy,
                      provider)
VALUES (1, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET timestamp = excluded.timestamp,
                               latitude  = excluded.latitude,
                               longitude = excluded.longitude,
                               altitude  = excluded.altitude,
                               accuracy  = excluded.accuracy,
                               provider  = excluded.provider
WHERE excluded.timestamp >= last_fix.timestamp`

	selectFixSQL = `
SELECT 
    timestamp, 
    latitude, 
    longitude, 
    altitude, 
    accuracy, 
    provider 
FROM last_fix 
WHERE 
    id = 1`

	upsertPermissionSQL = `
INSERT INTO permissions (capability,
                         status,
                         updated_at)
VALUES (?, ?, ?)
ON CONFLICT (capability) DO UPDATE SET status     = excluded.status,
                                       updated_at = excluded.updated_at`

	selectPermissionsSQL = `
SELECT 
    capability, 
    status 
FROM permissions`
)

//go:embed schema.sql
var initSchemaSQL string
