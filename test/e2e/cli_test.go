package e2e_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary before all E2E tests.
	tmp, err := os.MkdirTemp("", "coffee-e2e-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "coffee")
	// Build from the module root (two levels up from test/e2e/).
	moduleRoot, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		panic(err)
	}
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = moduleRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func cliEnv(configDir string) []string {
	return append(os.Environ(),
		"COFFEE_CONFIG_DIR="+configDir,
		"COFFEE_NETWORK=",
		"COFFEE_RPC_URL=",
		"COFFEE_CONTRACT=",
	)
}

func runCLI(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = cliEnv(configDir)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestVersionFlag(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "coffee")
	assert.Contains(t, out, "0.1.0")
}

func TestHelpCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"feed", "buy", "connect", "disconnect", "watch", "owner", "withdraw", "wallet", "network"} {
		assert.Contains(t, strings.ToLower(out), sub)
	}
	assert.Contains(t, out, "--network")
	assert.Contains(t, out, "--wallet")
}

func TestNetworkList(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "network", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "somnia-testnet")
	assert.Contains(t, out, "anvil")
	assert.Contains(t, out, "50312")
}

func TestNetworkUse(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "network", "use", "anvil")
	require.NoError(t, err)
	assert.Contains(t, out, "anvil")
	assert.Contains(t, out, "set-contract")

	cfgOut, err := runCLI(t, dir, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, cfgOut, `"network": "anvil"`)
}

func TestNetworkUseUnknown(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "network", "use", "unknownchain99")
	assert.Error(t, err)
}

func TestFeedWithoutContractFails(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "--network", "anvil", "feed")
	assert.Error(t, err)
	assert.Contains(t, out, "no contract address configured")
}

func TestConfigSetContract(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set-contract", "anvil", "0x5fbdb2315678afecb367f032d93f642f64180aa3")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "config", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "0x5FbDB2315678afecb367f032d93F642f64180aa3")

	_, err = runCLI(t, dir, "config", "set-contract", "anvil", "0xnope")
	assert.Error(t, err)
}

func TestConfigSetAmount(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, dir, "config", "set-amount", "0.0100")
	require.NoError(t, err)

	out, _ := runCLI(t, dir, "config", "list")
	assert.Contains(t, out, `"default_amount": "0.01"`)

	_, err = runCLI(t, dir, "config", "set-amount", "0.0001")
	assert.Error(t, err)
}

func TestWalletAddAndList(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "wallet", "add", "testwal", "0x1234567890abcdef1234567890abcdef12345678")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "testwal")
	assert.Contains(t, out, "0x1234")
	assert.Contains(t, out, "watch-only")
}

func TestWalletRemove(t *testing.T) {
	dir := t.TempDir()

	runCLI(t, dir, "wallet", "add", "w1", "0x1234567890abcdef1234567890abcdef12345678") //nolint:errcheck

	// Use stdin to auto-confirm the prompt.
	cmd := exec.Command(binaryPath, "wallet", "remove", "w1")
	cmd.Env = cliEnv(dir)
	cmd.Stdin = strings.NewReader("y\n")
	cmd.Run() //nolint:errcheck

	out, err := runCLI(t, dir, "wallet", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "w1")
}

func TestRPCSetAndList(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "config", "set-rpc", "anvil", "http://127.0.0.1:9545")
	require.NoError(t, err)

	out, _ := runCLI(t, dir, "rpc", "list", "anvil")
	assert.Contains(t, out, "127.0.0.1:9545")
	assert.Contains(t, out, "127.0.0.1:8545")
}

func TestRPCAlgorithmSet(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "rpc", "algorithm", "set", "round-robin")
	require.NoError(t, err)

	out, _ := runCLI(t, dir, "config", "list")
	assert.Contains(t, out, "round-robin")

	_, err = runCLI(t, dir, "rpc", "algorithm", "set", "random")
	assert.Error(t, err)
}

func TestDisconnectWithoutGrant(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "disconnect")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to do")
}

func TestUnknownCommandShowsError(t *testing.T) {
	dir := t.TempDir()
	out, _ := runCLI(t, dir, "unknowncommand")
	assert.Contains(t, strings.ToLower(out), "unknown command")
}
