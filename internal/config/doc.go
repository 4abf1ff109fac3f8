// Package config resolves the settings of an ingest run.
//
// Every setting is taken from the first source that provides it:
//  1. a command-line flag the user set explicitly
//  2. the YAML file (ingest.yaml in the working directory, or --config)
//  3. the environment (PGHOST, PGPORT, PGUSER, PGPASSWORD, PGDATABASE, PGSSLMODE,
//     AWS_REGION, AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET)
//  4. the flag's default value
//
// A .env file in the working directory is loaded into the environment
// before resolution; variables already set are not overwritten.
package config
