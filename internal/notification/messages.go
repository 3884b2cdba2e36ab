package notification

// クライアントに返すメッセージ。既存のモバイルアプリが表示している文言と揃えること。
const (
	msgUserIDRequired         = "Mobile User ID is required"
	msgTitleMessageRequired   = "Title และ Message จำเป็นต้องระบุ"
	msgUserNotFound           = "ไม่พบผู้ใช้ที่ระบุ"
	msgNotificationIDRequired = "Notification ID is required"
	msgDeviceIDRequired       = "Device ID is required"
	msgNotificationNotFound   = "ไม่พบการแจ้งเตือนที่ระบุ"
	msgStatusInvalid          = "Status must be one of pending, processing, processed, failed"
	msgUnknownOperation       = "Unknown operation"
	msgStorageUnavailable     = "ไม่สามารถเชื่อมต่อฐานข้อมูลได้"

	msgCreateFailed       = "เกิดข้อผิดพลาดในการสร้างการแจ้งเตือน"
	msgListFailed         = "เกิดข้อผิดพลาดในการดึงข้อมูลการแจ้งเตือน"
	msgMarkReadFailed     = "เกิดข้อผิดพลาดในการทำเครื่องหมายอ่านแล้ว"
	msgUnreadCountFailed  = "เกิดข้อผิดพลาดในการนับการแจ้งเตือนที่ยังไม่อ่าน"
	msgStatsFailed        = "เกิดข้อผิดพลาดในการดึงสถิติการแจ้งเตือน"
	msgMarkAllReadFailed  = "เกิดข้อผิดพลาดในการทำเครื่องหมายอ่านแล้วทั้งหมด"
	msgPendingFailed      = "เกิดข้อผิดพลาดในการดึงการแจ้งเตือนที่รอส่ง"
	msgUpdateStatusFailed = "เกิดข้อผิดพลาดในการอัปเดตสถานะการแจ้งเตือน"

	msgCreated          = "สร้างการแจ้งเตือนสำเร็จ"
	msgMarkedRead       = "ทำเครื่องหมายอ่านแล้วสำเร็จ"
	msgAlreadyRead      = "การแจ้งเตือนนี้อ่านแล้ว"
	msgMarkedAllReadFmt = "ทำเครื่องหมายอ่านแล้ว %d รายการ"
	msgStatusUpdated    = "อัปเดตสถานะสำเร็จ"
)
