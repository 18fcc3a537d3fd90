package database

import (
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"velocraft/internal/pkg/bootstrap"
)

func TestMySQLDSN_RoundTrips(t *testing.T) {
	cfg := bootstrap.DatabaseConfig{Host: "db", Port: 3306, User: "app", Password: "p@ss:word/", Name: "velocraft"}
	dsn := MySQLDSN(cfg)

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "p@ss:word/", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "velocraft", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(bootstrap.DatabaseConfig{Driver: "postgres", Host: "pg", Port: 5432})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(bootstrap.DatabaseConfig{Driver: "mysql", Host: "db", Port: 3306})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = Dialector(bootstrap.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(bootstrap.DatabaseConfig{Host: "pg", Port: 5432, User: "u", Password: "p", Name: "n"})
	assert.Contains(t, dsn, "host=pg")
	assert.Contains(t, dsn, "port=5432")
}
