package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePnpmLock_V9(t *testing.T) {
	content := `
lockfileVersion: '9.0'

importers:
  .:
    dependencies:
      lodash:
        specifier: ^4.17.21
        version: 4.17.21

packages:
  'lodash@4.17.21':
    resolution: {integrity: sha512-xxx}

  '@types/node@20.0.0':
    resolution: {integrity: sha512-xxx}
    engines: {node: '>=14'}

  react-dom@18.2.0:
    resolution: {integrity: sha512-xxx}
    peerDependencies:
      react: ^18.2.0
`
	records, err := ParsePnpmLock(content)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Name: "lodash", Spec: "4.17.21", Class: Transitive},
		{Name: "@types/node", Spec: "20.0.0", Class: Transitive},
		{Name: "react-dom", Spec: "18.2.0", Class: Transitive},
	}, records)
}

func TestParsePnpmLock_LeadingSlash(t *testing.T) {
	content := `
lockfileVersion: '6.0'

packages:
  /lodash@4.17.21:
    resolution: {integrity: sha512-xxx}
    dev: false

  /@babel/core@7.23.0:
    resolution: {integrity: sha512-xxx}
    dependencies:
      '@babel/types': 7.23.0

  /react-dom@18.2.0(react@18.2.0):
    resolution: {integrity: sha512-xxx}
`
	records, err := ParsePnpmLock(content)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Name: "lodash", Spec: "4.17.21", Class: Transitive},
		{Name: "@babel/core", Spec: "7.23.0", Class: Transitive},
		{Name: "react-dom", Spec: "18.2.0", Class: Transitive},
	}, records)
}

func TestParsePnpmLock_SlashVersionKeys(t *testing.T) {
	content := `lockfileVersion: 5.4

packages:

  /lodash/4.17.21:
    resolution: {integrity: sha512-xxx}

  /@babel/core/7.0.0_supports-color@5.5.0:
    resolution: {integrity: sha512-xxx}
`
	records, err := ParsePnpmLock(content)
	require.NoError(t, err)

	assert.Equal(t, []Record{
		{Name: "lodash", Spec: "4.17.21", Class: Transitive},
		{Name: "@babel/core", Spec: "7.0.0", Class: Transitive},
	}, records)
}

func TestParsePnpmLock_StopsAtNextTopLevelKey(t *testing.T) {
	content := `
lockfileVersion: '9.0'

packages:
  'lodash@4.17.21':
    resolution: {integrity: sha512-xxx}

snapshots:
  'posthog-js@1.297.3':
    something: else
`
	records, err := ParsePnpmLock(content)
	require.NoError(t, err)
	assert.Equal(t, []Record{{Name: "lodash", Spec: "4.17.21", Class: Transitive}}, records)
}

func TestParsePnpmLock_NoPackagesSection(t *testing.T) {
	content := `
lockfileVersion: '9.0'

importers:
  .:
    dependencies:
      'lodash@4.17.21':
        version: 4.17.21
`
	records, err := ParsePnpmLock(content)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParsePnpmLock_IndentedPackagesHeaderIgnored(t *testing.T) {
	content := `
settings:
  packages:
    'lodash@4.17.21':
      resolution: {integrity: sha512-xxx}
`
	records, err := ParsePnpmLock(content)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParsePnpmLock_Binary(t *testing.T) {
	_, err := ParsePnpmLock("\x00\x01")
	assert.Error(t, err)
}
