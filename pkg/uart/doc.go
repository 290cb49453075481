// Package uart provides the buffered byte transport under the tower
// protocol.
//
// A Port owns a receive and a transmit FIFO. The protocol side polls them
// without blocking (TryReceiveByte/TrySendByte), while pumps move bytes
// between the FIFOs and a link: a serial device or a websocket connection.
// The pumps play the role of the UART interrupt handlers.
package uart
