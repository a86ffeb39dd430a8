// Package it runs the coordinator against real in-process replicas over
// both transports.
package it
