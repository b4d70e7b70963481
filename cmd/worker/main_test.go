package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farmdesk/farmdesk/internal/app"
	_ "github.com/farmdesk/farmdesk/testing"
)

func TestWorkerSkipsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	require.True(t, app.InTestMode())
	main()
}
