// Package ce84 implements the core emulation engine of a TI-84 Plus CE
// graphing calculator: a deterministic, cycle-accurate model of the 48 MHz
// eZ80 CPU and the TI-84 CE ASIC (memory controller, flash, interrupt
// controller, timers, real-time clock, LCD controller, keypad, SPI, SHA256
// accelerator, watchdog and backlight).
//
// The package has no concept of a host UI, ROM file picker or on-disk
// cache; those are the job of whatever embeds this package (historically a
// C-ABI wrapper). Everything here is single-threaded and deterministic: an
// Emulator is driven by repeated calls to RunCycles, and its entire state
// can be captured and restored with Save/Load.
package ce84
