package config

// RelayerConfigTemplate is used by deployment tooling to render a relayer
// config file.
const RelayerConfigTemplate = `server_port = {{ .ServerPort }}
monitor_url = "{{ .MonitorUrl }}"
account = "{{ .Account }}"

transaction_timeout_ms = {{ .TxTimeoutMs }}
transaction_check_interval_ms = {{ .TxCheckIntervalMs }}
gas_limit = {{ .GasLimit }}

registry_contract = "{{ .RegistryContract }}"
stable_token = "{{ .StableToken }}"

[chain]
chain = "{{ .Chain.Chain }}"
chain_id = {{ .Chain.ChainId }}
rpc_url = "{{ .Chain.RpcUrl }}"
{{ range .AllowedCalls }}
[[allowed_calls]]
contract = "{{ .Contract }}"
methods = [{{ range $i, $m := .Methods }}{{ if $i }}, {{ end }}"{{ $m }}"{{ end }}]
{{ end }}
`
