/*
Package rabbitmq provides a RabbitMQ exporter for published-event records.
It maps exports to AMQP publishes on a topic exchange, includes an auto-reconnect publisher,
and supports optional header propagation via a bus.HeaderPropagator.
*/
package rabbitmq
