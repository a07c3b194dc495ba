package config

import "github.com/spf13/viper"

// setDefaults sets the baseline values every settled deployment starts from.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug_logfile", "/var/log/settled/debug.log")

	v.SetDefault("engine.protocol_fee_pips", 0)

	v.SetDefault("storage.path", "/var/lib/settled/db")
	v.SetDefault("storage.backend", "pebble")

	setPortDefaults(v)
}

// setPortDefaults sets default values for common port configurations.
func setPortDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.ip", "0.0.0.0")

	v.SetDefault("limit", 0) // 0 means unlimited
	v.SetDefault("send_queue_limit", 100)
	v.SetDefault("permessage_deflate", false)
	v.SetDefault("compress_level", 3)
	v.SetDefault("memory_level", 8)
	v.SetDefault("client_max_window_bits", 15)
	v.SetDefault("server_max_window_bits", 15)
	v.SetDefault("client_no_context_takeover", false)
	v.SetDefault("server_no_context_takeover", false)

	setExamplePortDefaults(v)
}

// setExamplePortDefaults seeds defaults for the port sections a default
// deployment config is expected to name.
func setExamplePortDefaults(v *viper.Viper) {
	v.SetDefault("port_rpc_admin_local.port", 5005)
	v.SetDefault("port_rpc_admin_local.ip", "127.0.0.1")
	v.SetDefault("port_rpc_admin_local.protocol", "http")
	v.SetDefault("port_rpc_admin_local.admin", []string{"127.0.0.1"})

	v.SetDefault("port_ws_admin_local.port", 6006)
	v.SetDefault("port_ws_admin_local.ip", "127.0.0.1")
	v.SetDefault("port_ws_admin_local.protocol", "ws")
	v.SetDefault("port_ws_admin_local.admin", []string{"127.0.0.1"})
	v.SetDefault("port_ws_admin_local.send_queue_limit", 500)
}
