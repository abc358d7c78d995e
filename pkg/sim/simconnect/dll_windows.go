//go:build windows

package simconnect

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows/registry"
)

// DLL is the API backed by SimConnect.dll. InitPosition arguments follow the
// x64 calling convention (structs larger than 8 bytes go by reference).
type DLL struct {
	dll    *syscall.LazyDLL
	handle uintptr

	procOpen                     *syscall.LazyProc
	procClose                    *syscall.LazyProc
	procAddToDataDefinition      *syscall.LazyProc
	procRequestDataOnSimObject   *syscall.LazyProc
	procSetDataOnSimObject       *syscall.LazyProc
	procGetNextDispatch          *syscall.LazyProc
	procAICreateNonATCAircraft   *syscall.LazyProc
	procAICreateSimulatedObject  *syscall.LazyProc
	procAIRemoveObject           *syscall.LazyProc
	procAIReleaseControl         *syscall.LazyProc
	procMapClientEventToSimEvent *syscall.LazyProc
	procTransmitClientEvent      *syscall.LazyProc
	procSubscribeToSystemEvent   *syscall.LazyProc
	procGetLastSentPacketID      *syscall.LazyProc
}

// steamUninstallKeys are the registry keys of the Steam edition of MSFS.
var steamUninstallKeys = []string{
	`SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall\Steam App 1250410`,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall\Steam App 1250410`,
}

// DLLCandidates returns the places SimConnect.dll is looked for, in order:
// next to the executable, the MSFS SDK, the Steam install and System32.
func DLLCandidates() []string {
	var paths []string

	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), "SimConnect.dll"))
	}
	if sdkPath := os.Getenv("MSFS_SDK"); sdkPath != "" {
		paths = append(paths, filepath.Join(sdkPath, "SimConnect SDK", "lib", "SimConnect.dll"))
	}
	paths = append(paths,
		`C:\MSFS 2024 SDK\SimConnect SDK\lib\SimConnect.dll`,
		`C:\MSFS SDK\SimConnect SDK\lib\SimConnect.dll`,
		`C:\Program Files (x86)\Microsoft Flight Simulator SDK\SimConnect SDK\lib\SimConnect.dll`,
	)
	for _, regPath := range steamUninstallKeys {
		if dir, ok := installLocation(regPath); ok {
			paths = append(paths, filepath.Join(dir, "SimConnect.dll"))
		}
	}
	if windowsDir := os.Getenv("WINDIR"); windowsDir != "" {
		paths = append(paths, filepath.Join(windowsDir, "System32", "SimConnect.dll"))
	}
	return paths
}

func installLocation(regPath string) (string, bool) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, regPath, registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer key.Close()
	val, _, err := key.GetStringValue("InstallLocation")
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

// FindDLL returns the first existing path of DLLCandidates.
func FindDLL() (string, error) {
	for _, p := range DLLCandidates() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("SimConnect.dll not found (set sim.dll_path or MSFS_SDK)")
}

// LoadDLL loads SimConnect.dll from path.
func LoadDLL(path string) (*DLL, error) {
	dll := syscall.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("failed to load SimConnect.dll: %w", err)
	}
	return &DLL{
		dll:                          dll,
		procOpen:                     dll.NewProc("SimConnect_Open"),
		procClose:                    dll.NewProc("SimConnect_Close"),
		procAddToDataDefinition:      dll.NewProc("SimConnect_AddToDataDefinition"),
		procRequestDataOnSimObject:   dll.NewProc("SimConnect_RequestDataOnSimObject"),
		procSetDataOnSimObject:       dll.NewProc("SimConnect_SetDataOnSimObject"),
		procGetNextDispatch:          dll.NewProc("SimConnect_GetNextDispatch"),
		procAICreateNonATCAircraft:   dll.NewProc("SimConnect_AICreateNonATCAircraft"),
		procAICreateSimulatedObject:  dll.NewProc("SimConnect_AICreateSimulatedObject"),
		procAIRemoveObject:           dll.NewProc("SimConnect_AIRemoveObject"),
		procAIReleaseControl:         dll.NewProc("SimConnect_AIReleaseControl"),
		procMapClientEventToSimEvent: dll.NewProc("SimConnect_MapClientEventToSimEvent"),
		procTransmitClientEvent:      dll.NewProc("SimConnect_TransmitClientEvent"),
		procSubscribeToSystemEvent:   dll.NewProc("SimConnect_SubscribeToSystemEvent"),
		procGetLastSentPacketID:      dll.NewProc("SimConnect_GetLastSentPacketID"),
	}, nil
}

func cstr(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

//go:uintptrescapes
func (d *DLL) call(name string, proc *syscall.LazyProc, args ...uintptr) error {
	if d.handle == 0 && proc != d.procOpen {
		return fmt.Errorf("%s: %w", name, ErrNotLoaded)
	}
	r1, _, err := proc.Call(args...)
	if int32(r1) < 0 {
		return fmt.Errorf("%s failed: %v (0x%x)", name, err, uint32(r1))
	}
	return nil
}

// Open establishes a connection to SimConnect.
func (d *DLL) Open(appName string) error {
	var handle uintptr
	namePtr := cstr(appName)
	err := d.call("SimConnect_Open", d.procOpen,
		uintptr(unsafe.Pointer(&handle)),
		uintptr(unsafe.Pointer(namePtr)),
		0, // hWnd
		0, // UserEventWin32
		0, // EventHandle
		0, // ConfigIndex
	)
	if err != nil {
		return err
	}
	d.handle = handle
	return nil
}

// Close terminates the SimConnect connection.
func (d *DLL) Close() error {
	if d.handle == 0 {
		return nil
	}
	err := d.call("SimConnect_Close", d.procClose, d.handle)
	d.handle = 0
	return err
}

func (d *DLL) AddToDataDefinition(defineID DefineID, datumName, unitsName string, datumType DataType) error {
	var units *byte
	if unitsName != "" {
		units = cstr(unitsName)
	}
	if err := d.call("SimConnect_AddToDataDefinition", d.procAddToDataDefinition,
		d.handle,
		uintptr(defineID),
		uintptr(unsafe.Pointer(cstr(datumName))),
		uintptr(unsafe.Pointer(units)),
		uintptr(datumType),
		0,               // fEpsilon
		uintptr(Unused), // DatumID
	); err != nil {
		return fmt.Errorf("%s: %w", datumName, err)
	}
	return nil
}

func (d *DLL) RequestDataOnSimObject(requestID uint32, defineID DefineID, objectID uint32, period Period, flags uint32) error {
	return d.call("SimConnect_RequestDataOnSimObject", d.procRequestDataOnSimObject,
		d.handle,
		uintptr(requestID),
		uintptr(defineID),
		uintptr(objectID),
		uintptr(period),
		uintptr(flags),
		0, // origin
		0, // interval
		0, // limit
	)
}

func (d *DLL) SetDataOnSimObject(defineID DefineID, objectID uint32, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("SimConnect_SetDataOnSimObject: empty data")
	}
	return d.call("SimConnect_SetDataOnSimObject", d.procSetDataOnSimObject,
		d.handle,
		uintptr(defineID),
		uintptr(objectID),
		0, // flags
		0, // arrayCount
		uintptr(len(data)),
		uintptr(unsafe.Pointer(&data[0])),
	)
}

func (d *DLL) AICreateNonATCAircraft(containerTitle, tailNumber string, initPos InitPosition, requestID uint32) error {
	return d.call("SimConnect_AICreateNonATCAircraft", d.procAICreateNonATCAircraft,
		d.handle,
		uintptr(unsafe.Pointer(cstr(containerTitle))),
		uintptr(unsafe.Pointer(cstr(tailNumber))),
		uintptr(unsafe.Pointer(&initPos)),
		uintptr(requestID),
	)
}

func (d *DLL) AICreateSimulatedObject(containerTitle string, initPos InitPosition, requestID uint32) error {
	return d.call("SimConnect_AICreateSimulatedObject", d.procAICreateSimulatedObject,
		d.handle,
		uintptr(unsafe.Pointer(cstr(containerTitle))),
		uintptr(unsafe.Pointer(&initPos)),
		uintptr(requestID),
	)
}

func (d *DLL) AIRemoveObject(objectID, requestID uint32) error {
	return d.call("SimConnect_AIRemoveObject", d.procAIRemoveObject,
		d.handle, uintptr(objectID), uintptr(requestID))
}

func (d *DLL) AIReleaseControl(objectID, requestID uint32) error {
	return d.call("SimConnect_AIReleaseControl", d.procAIReleaseControl,
		d.handle, uintptr(objectID), uintptr(requestID))
}

func (d *DLL) MapClientEventToSimEvent(eventID EventID, eventName string) error {
	return d.call("SimConnect_MapClientEventToSimEvent", d.procMapClientEventToSimEvent,
		d.handle, uintptr(eventID), uintptr(unsafe.Pointer(cstr(eventName))))
}

func (d *DLL) TransmitClientEvent(objectID uint32, eventID EventID, data uint32) error {
	return d.call("SimConnect_TransmitClientEvent", d.procTransmitClientEvent,
		d.handle,
		uintptr(objectID),
		uintptr(eventID),
		uintptr(data),
		uintptr(GROUP_PRIORITY_HIGHEST),
		uintptr(EVENT_FLAG_GROUPID_IS_PRIORITY),
	)
}

// SubscribeToSystemEvent subscribes to a system event like "SimStart" or "SimStop".
func (d *DLL) SubscribeToSystemEvent(eventID EventID, eventName string) error {
	return d.call("SimConnect_SubscribeToSystemEvent", d.procSubscribeToSystemEvent,
		d.handle, uintptr(eventID), uintptr(unsafe.Pointer(cstr(eventName))))
}

func (d *DLL) LastSentPacketID() (uint32, error) {
	var id uint32
	err := d.call("SimConnect_GetLastSentPacketID", d.procGetLastSentPacketID,
		d.handle, uintptr(unsafe.Pointer(&id)))
	return id, err
}

// NextDispatch copies the next message out of the SimConnect buffer and decodes it.
func (d *DLL) NextDispatch() (Message, error) {
	if d.handle == 0 {
		return nil, ErrNotLoaded
	}
	var ppData unsafe.Pointer
	var cbData uint32
	r1, _, _ := d.procGetNextDispatch.Call(
		d.handle,
		uintptr(unsafe.Pointer(&ppData)),
		uintptr(unsafe.Pointer(&cbData)),
	)
	if uint32(r1) == EFAIL {
		// No message available
		return nil, nil
	}
	if int32(r1) < 0 {
		return nil, fmt.Errorf("SimConnect_GetNextDispatch failed: 0x%x", uint32(r1))
	}
	if ppData == nil || cbData == 0 {
		return nil, nil
	}
	return Decode(unsafe.Slice((*byte)(ppData), cbData))
}
