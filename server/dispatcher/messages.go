package dispatcher

// Chat texts.
const (
	helloText            = "Haloo"
	groupOnlyPrivateText = "Pesan ini sudah tidak bisa dipakai di Group, gunakan pesan ini pada pesan pribadi!."
	imageSearchOffText   = "Fitur cari gambar belum diaktifkan."
	imageQueryEmptyText  = "Tulis nama gambar setelah perintah .gpict"
	imageRepeatedText    = "Gambar dengan nama tersebut sudah dicari, coba nama lain!."
	imageNotFoundText    = "Ngga ada gambar yang cocok, coba nama lain!"
	imageQuotaText       = "Ngga bisa mencari gambar ini, limit API telah seluruhnya terpakai!"
	imageDownloadText    = "Error saat mengunduh gambar, silahkan coba lagi."
	stickerNoMediaText   = "Kirim gambar atau balas gambar dengan perintah .s untuk mengubahnya menjadi stiker."
	memeNoTextText       = "Tolong tambahkan teks meme setelah perintah .smeme"
	memeNoMediaText      = "Kirim gambar atau balas gambar dengan perintah .smeme <text> untuk mengubahnya menjadi meme stiker."
	quoteNoTextText      = "Tulis teks atau balas pesan dengan perintah .qc untuk membuat stiker quote."
	stickerMovedText     = "Perintah telah di ubah, gunakan .s untuk membuat gambar menjadi stiker."
	everyoneText         = "Everyone!"
	clearedText          = "Semua riwayat chat telah dihapus."
	clearFailedText      = "Terjadi kesalahan saat menghapus riwayat chat, silakan coba lagi."
	forbiddenText        = "Anda tidak memiliki izin untuk menggunakan perintah ini."
	registerUsageText    = "Format perintah salah. Gunakan: .reg (nomor)"
	registerFailedText   = "Gagal menyimpan nomor, silakan coba lagi."
	aiDisabledText       = "Fitur AI belum diaktifkan."

	notifyFormat     = "Nomor %s melakukan request."
	registeredFormat = "Nomor %s Berhasil di masukkan ke database."
	duplicateFormat  = "Nomor %s Sudah ada di database."
	infoFormat       = "*Info BOT*\nNama: %s\nNo: %s\n-------------------------\nOwner : %s\nVersi : %s"
)
