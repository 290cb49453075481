// Package accel samples a three axis accelerometer.
//
// In poll mode the sensor is read periodically and a median of the last
// three readings per axis is reported when it changes. In interrupt mode
// every data-ready reading is reported as is.
package accel
