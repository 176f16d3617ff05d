// Package mqtt provides the MQTT broker connection used for telegram
// ingestion and event fan-out.
//
// Sensors (or a gateway in front of them) publish raw telegrams on
// <prefix>/telegram/<device>; the service subscribes to the wildcard,
// ingests every payload and republishes each stored event as JSON on
// <prefix>/event/<device_id>. A retained status message on
// <prefix>/system/status, backed by a Last Will, lets consumers see whether
// the service is online.
//
// The client reconnects automatically and restores its subscriptions.
// Handler panics are recovered and logged.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllTelegrams(), client.QoS(), handler)
package mqtt
