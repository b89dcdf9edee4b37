// Package hclconfig loads the service configuration from HCL files.
//
// Files may reference the process environment through the `env` object:
//
//	notify {
//	  socketio_url = env.CONT_SOCKETIO_URL
//	}
//
// A directory path loads every .hcl file beneath it in lexical order.
package hclconfig
