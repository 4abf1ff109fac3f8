// Package db opens the destination PostgreSQL connection pool.
//
// NewConnector picks a connector for the configured authentication method:
//   - StandardConnector: username and password
//   - TokenBasedConnector: a short-lived token used as the password (AWS RDS IAM, Azure Entra ID)
//   - GoogleCloudSQLConnector: the Cloud SQL dialer with IAM authentication
//
// Connection attempts are retried for transient failures. Nothing in this
// package retries work done on an established connection.
package db
